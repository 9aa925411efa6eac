// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTemplateCacheSize 模板解析缓存的默认容量
const DefaultTemplateCacheSize = 64

// Placeholder 模板中可替换的占位符
type Placeholder uint8

const (
	noPlaceholder Placeholder = iota
	// CallerName 调用方的简单名称
	CallerName
	// CallerFullDescription 调用方的完整描述，包含签名
	CallerFullDescription
	// CallerReflectedType 调用方的运行时类型(全限定)
	CallerReflectedType
	// CallerReflectedTypeName 调用方的运行时类型(短名称)
	CallerReflectedTypeName
	// CallerDeclaringType 调用方的声明类型(全限定)
	CallerDeclaringType
	// CallerDeclaringTypeName 调用方的声明类型(短名称)
	CallerDeclaringTypeName
	// ExceptionType 异常类型(全限定)
	ExceptionType
	// ExceptionTypeName 异常类型(短名称)
	ExceptionTypeName
	// ExceptionMessage 异常信息
	ExceptionMessage
)

var placeholderNames = map[string]Placeholder{
	"CallerName":              CallerName,
	"CallerFullDescription":   CallerFullDescription,
	"CallerReflectedType":     CallerReflectedType,
	"CallerReflectedTypeName": CallerReflectedTypeName,
	"CallerDeclaringType":     CallerDeclaringType,
	"CallerDeclaringTypeName": CallerDeclaringTypeName,
	"ExceptionType":           ExceptionType,
	"ExceptionTypeName":       ExceptionTypeName,
	"ExceptionMessage":        ExceptionMessage,
}

// String 返回占位符在模板中的写法，比如"{CallerName}"
func (p Placeholder) String() string {
	for name, ph := range placeholderNames {
		if ph == p {
			return "{" + name + "}"
		}
	}

	return ""
}

// IsException 是否是只在异常日志中可用的占位符
func (p Placeholder) IsException() bool {
	return p >= ExceptionType
}

// Values 占位符取值接口，ok为false时占位符原样输出
type Values interface {
	Lookup(p Placeholder) (value string, ok bool)
}

type segment struct {
	literal string
	ph      Placeholder
}

// Template 解析后的模板，由字面量片段和占位符片段组成。
// 模板语法：
// 1. {Name} 为占位符，Name必须是已知的占位符名称
// 2. {{ 和 }} 分别转义为字面量 { 和 }
// 3. 未知的 {Name} 以及未闭合的 { 原样保留
type Template struct {
	raw      string
	segments []segment
}

// ParseTemplate 解析模板字符串，解析不会失败
func ParseTemplate(s string) *Template {
	t := &Template{raw: s}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			if end := strings.IndexByte(s[i+1:], '}'); end >= 0 {
				if ph, ok := placeholderNames[s[i+1:i+1+end]]; ok {
					flush()
					t.segments = append(t.segments, segment{ph: ph})
					i += end + 2
					continue
				}
			}
			lit.WriteByte('{')
			i++
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return t
}

// Raw 返回模板的原始文本
func (t *Template) Raw() string {
	return t.raw
}

// Placeholders 返回模板中出现的占位符，按出现顺序
func (t *Template) Placeholders() []Placeholder {
	var res []Placeholder
	for _, seg := range t.segments {
		if seg.ph != noPlaceholder {
			res = append(res, seg.ph)
		}
	}

	return res
}

// Render 把模板渲染到builder中，替换后的值不会被再次解析
func (t *Template) Render(b *strings.Builder, v Values) {
	for _, seg := range t.segments {
		if seg.ph == noPlaceholder {
			b.WriteString(seg.literal)
			continue
		}

		if v != nil {
			if value, ok := v.Lookup(seg.ph); ok {
				b.WriteString(value)
				continue
			}
		}
		b.WriteString(seg.ph.String())
	}
}

// Execute 渲染模板并返回字符串
func (t *Template) Execute(v Values) string {
	var b strings.Builder
	t.Render(&b, v)
	return b.String()
}

// Expand 替换任意文本中的已知占位符，其余的花括号都原样保留，{{ 和 }} 也不转义。
// 手动日志的内容是用户文本，不按模板语法解析
func Expand(b *strings.Builder, s string, v Values) {
	for {
		start := strings.IndexByte(s, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start+1:], '}')
		if end < 0 {
			break
		}
		end += start + 1

		b.WriteString(s[:start])
		name := s[start+1 : end]
		if ph, ok := placeholderNames[name]; ok && v != nil {
			if value, ok := v.Lookup(ph); ok {
				b.WriteString(value)
				s = s[end+1:]
				continue
			}
		}
		if strings.IndexByte(name, '{') >= 0 {
			// 内层还有左括号，从内层重新匹配
			b.WriteByte('{')
			s = s[start+1:]
			continue
		}
		b.WriteString(s[start : end+1])
		s = s[end+1:]
	}
	b.WriteString(s)
}

// TemplateCache 模板解析缓存，配置中的模板在两次配置变更之间不会变化，
// 缓存之后每行日志不需要重新扫描模板
type TemplateCache struct {
	c *lru.Cache[string, *Template]
}

// NewTemplateCache 创建指定容量的模板缓存
func NewTemplateCache(size int) (*TemplateCache, error) {
	c, err := lru.New[string, *Template](size)
	if err != nil {
		return nil, err
	}

	return &TemplateCache{c: c}, nil
}

// Get 获取解析后的模板，未命中时解析并缓存
func (tc *TemplateCache) Get(s string) *Template {
	if t, ok := tc.c.Get(s); ok {
		return t
	}

	t := ParseTemplate(s)
	tc.c.Add(s, t)
	return t
}

// Len 返回缓存中的模板数量
func (tc *TemplateCache) Len() int {
	return tc.c.Len()
}
