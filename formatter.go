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

package tracex

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/TimeWtr/tracex/core"
)

// Kind 调用链日志行的类型
type Kind uint8

const (
	// EnterKind 进入调用
	EnterKind Kind = iota + 1
	// ExitKind 退出有子调用的调用
	ExitKind
	// CombinedKind 没有子调用的调用合并后的一行
	CombinedKind
	// ExceptionKind 调用异常退出
	ExceptionKind
)

func (k Kind) String() string {
	switch k {
	case EnterKind:
		return "enter"
	case ExitKind:
		return "exit"
	case CombinedKind:
		return "combined"
	case ExceptionKind:
		return "exception"
	default:
		return fmt.Sprintf("unknown kind(%d)", uint8(k))
	}
}

// exceptionInfo 异常相关的占位符取值
type exceptionInfo struct {
	typ     string
	typName string
	message string
}

func describeException(err error) *exceptionInfo {
	var (
		typ reflect.Type
		msg string
		pe  *PanicError
	)
	if errors.As(err, &pe) {
		typ, msg = reflect.TypeOf(pe.Value), fmt.Sprint(pe.Value)
	} else {
		typ, msg = reflect.TypeOf(err), err.Error()
	}

	ei := &exceptionInfo{message: msg, typ: "<nil>", typName: "<nil>"}
	if typ == nil {
		return ei
	}

	prefix := ""
	for typ.Kind() == reflect.Pointer {
		prefix += "*"
		typ = typ.Elem()
	}
	ei.typ = prefix + qualifiedTypeName(typ)
	ei.typName = typ.Name()
	if ei.typName == "" {
		ei.typName = typ.String()
	}

	return ei
}

// callValues 组合调用方和异常的占位符取值
type callValues struct {
	m   *Method
	exc *exceptionInfo
}

func (v callValues) Lookup(p core.Placeholder) (string, bool) {
	if !p.IsException() {
		if v.m == nil {
			return "", false
		}
		return v.m.Lookup(p)
	}

	if v.exc == nil {
		return "", false
	}

	switch p {
	case core.ExceptionType:
		return v.exc.typ, true
	case core.ExceptionTypeName:
		return v.exc.typName, true
	case core.ExceptionMessage:
		return v.exc.message, true
	default:
		return "", false
	}
}

// Formatter 把调用链事件和手动日志格式化为日志行，除模板缓存外没有状态
type Formatter struct {
	cache *core.TemplateCache
}

// NewFormatter cacheSize为模板解析缓存的容量
func NewFormatter(cacheSize int) (*Formatter, error) {
	cache, err := core.NewTemplateCache(cacheSize)
	if err != nil {
		return nil, err
	}

	return &Formatter{cache: cache}, nil
}

// FormatCall 格式化一行调用链日志，标记和分隔符同样按模板替换占位符：
// {runner缩进}{runner}{层级缩进}{标记 }{ (次数) }{来源模板}{ 分隔符 }{信息模板}
func (f *Formatter) FormatCall(cfg *Config, kind Kind, m *Method, indent int, err error, repeatCount int) string {
	source, info := cfg.Information.CallSource, cfg.Information.CallInfo
	separator := cfg.Symbols.CallSeparator
	var marker string
	switch kind {
	case EnterKind:
		marker = cfg.Symbols.EnterMarker
	case ExitKind:
		marker = cfg.Symbols.ExitMarker
	case CombinedKind:
		marker = cfg.Symbols.CombinedMarker
	case ExceptionKind:
		marker = cfg.Symbols.ExceptionMarker
		separator = cfg.Symbols.ExceptionSeparator
		source, info = cfg.Information.ExceptionSource, cfg.Information.ExceptionInfo
		if !cfg.Indent.IndentExceptions {
			indent = cfg.Indent.BaseIndent
		}
	}

	v := callValues{m: m}
	if err != nil {
		v.exc = describeException(err)
	}

	var b strings.Builder
	f.pad(&b, cfg, indent)
	if cfg.Format.EnableMarkers && marker != "" {
		f.cache.Get(marker).Render(&b, v)
		b.WriteByte(' ')
	}
	if repeatCount > 0 {
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(repeatCount))
		b.WriteString(") ")
	}
	f.cache.Get(source).Render(&b, v)
	if separator != "" {
		b.WriteByte(' ')
		f.cache.Get(separator).Render(&b, v)
		b.WriteByte(' ')
	} else {
		b.WriteByte(' ')
	}
	f.cache.Get(info).Render(&b, v)

	return b.String()
}

// FormatManual 格式化手动日志，debugEnabled表示Logger是否开启了Debug级别，
// 只有开启时手动日志才会按调用链缩进。日志内容中的已知占位符按调用方替换
func (f *Formatter) FormatManual(cfg *Config, message string, caller *Method, indent int, debugEnabled bool) string {
	if !cfg.Indent.IndentManualLogs {
		indent = cfg.Indent.BaseIndent
	}

	showSource := cfg.Format.ShowSourceOfManualLogs
	if debugEnabled {
		showSource = cfg.Format.ShowSourceOfManualLogsInCallTrace
	}

	var b strings.Builder
	if debugEnabled {
		f.pad(&b, cfg, indent)
	}
	if showSource {
		f.cache.Get(cfg.Information.ManualLogSource).Render(&b, callValues{m: caller})
		b.WriteByte(' ')
	}
	core.Expand(&b, message, callValues{m: caller})

	return b.String()
}

// pad 写入Runner缩进、Runner和层级缩进
func (f *Formatter) pad(b *strings.Builder, cfg *Config, indent int) {
	glyph, runnerIndent := cfg.runner()
	spaces(b, runnerIndent)
	b.WriteString(glyph)
	spaces(b, indent)
}

func spaces(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
	}
}
