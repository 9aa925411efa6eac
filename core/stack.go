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
	"runtime"
	"strings"
	"sync"
)

// Unknown 无法解析调用方时使用的名称
const Unknown = "UNKNOWN"

// FuncKind 函数的类别
type FuncKind uint8

const (
	FunctionKind FuncKind = iota + 1
	MethodKind
	ClosureKind
)

func (k FuncKind) String() string {
	switch k {
	case FunctionKind:
		return "Function"
	case MethodKind:
		return "Method"
	case ClosureKind:
		return "Closure"
	default:
		return "Unknown"
	}
}

// funcInfoCache 全局的符号与解析结果映射缓存，符号在进程生命周期内不会变化
var funcInfoCache sync.Map

// FuncInfo Go函数符号的解析结果，比如 github.com/a/b.(*Worker).Run
type FuncInfo struct {
	// 完整符号
	Symbol string
	// 包路径 github.com/a/b
	Package string
	// 接收者类型，去掉了指针和泛型参数 Worker
	Receiver string
	// 函数名称，闭包包含外层函数 Run.func1
	Name string
	// 类别
	Kind FuncKind
}

// QualifiedName 返回带包路径和接收者的函数名称
func (f FuncInfo) QualifiedName() string {
	return f.DeclaringType() + "." + f.Name
}

// DeclaringType 声明类型的全限定名称，普通函数的声明类型是它所在的包
func (f FuncInfo) DeclaringType() string {
	if f.Receiver == "" {
		return f.Package
	}

	return f.Package + "." + f.Receiver
}

// DeclaringTypeName 声明类型的短名称
func (f FuncInfo) DeclaringTypeName() string {
	return ShortTypeName(f.DeclaringType())
}

// ParseFuncName 解析runtime给出的函数符号，解析结果会被缓存
func ParseFuncName(symbol string) FuncInfo {
	if v, ok := funcInfoCache.Load(symbol); ok {
		info, _ := v.(FuncInfo)
		return info
	}

	info := parseFuncName(symbol)
	funcInfoCache.Store(symbol, info)
	return info
}

func parseFuncName(symbol string) FuncInfo {
	info := FuncInfo{Symbol: symbol, Kind: FunctionKind}
	if symbol == "" {
		info.Name = Unknown
		return info
	}

	// 方法值的包装函数以"-fm"结尾
	full := strings.TrimSuffix(symbol, "-fm")
	lastSlash := strings.LastIndexByte(full, '/')
	dot := strings.IndexByte(full[lastSlash+1:], '.')
	if dot < 0 {
		info.Name = full
		return info
	}

	info.Package = full[:lastSlash+1+dot]
	sym := strings.ReplaceAll(full[lastSlash+1+dot+1:], "[...]", "")

	if strings.HasPrefix(sym, "(") {
		if end := strings.Index(sym, ")."); end > 0 {
			info.Receiver = strings.TrimPrefix(sym[1:end], "*")
			sym = sym[end+2:]
		}
	} else if first, rest, ok := strings.Cut(sym, "."); ok && !isClosureSuffix(rest) {
		info.Receiver = first
		sym = rest
	}

	info.Name = sym
	switch {
	case hasClosurePart(sym):
		info.Kind = ClosureKind
	case info.Receiver != "":
		info.Kind = MethodKind
	}

	return info
}

func hasClosurePart(name string) bool {
	parts := strings.Split(name, ".")
	for _, p := range parts[1:] {
		if isClosureSuffix(p) {
			return true
		}
	}

	return false
}

func isClosureSuffix(s string) bool {
	for _, prefix := range [...]string{"func", "gowrap", "deferwrap"} {
		if len(s) > len(prefix) && strings.HasPrefix(s, prefix) && s[len(prefix)] >= '0' && s[len(prefix)] <= '9' {
			return true
		}
	}

	return false
}

// ShortTypeName 从全限定类型名称中取出短名称，github.com/a/b.Worker -> Worker，
// 包路径 github.com/a/b -> b
func ShortTypeName(qualified string) string {
	s := strings.TrimLeft(qualified, "*")
	s = s[strings.LastIndexByte(s, '/')+1:]
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}

	return s
}

// FuncName 返回pc指向的函数符号
func FuncName(pc uintptr) string {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}

	return fn.Name()
}

// CallerFunction 返回调用栈上第skip层函数的符号，skip为0表示CallerFunction的调用方。
// 使用CallersFrames展开内联帧，内联后的函数也能拿到正确的符号
func CallerFunction(skip int) string {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return ""
	}

	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return frame.Function
}
