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
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/TimeWtr/tracex/core"
	"github.com/TimeWtr/tracex/errorx"
)

type FuncKind = core.FuncKind

const (
	FunctionKind = core.FunctionKind
	MethodKind   = core.MethodKind
	ClosureKind  = core.ClosureKind
)

// MethodInfo 被追踪方法的命名信息，用于填充占位符
type MethodInfo struct {
	// {CallerName}
	Name string
	// {CallerFullDescription}，为空时使用 DeclaringType.Name()
	FullDescription string
	// {CallerReflectedType}，为空时与DeclaringType相同
	ReflectedType string
	// {CallerReflectedTypeName}，为空时从ReflectedType中取短名称
	ReflectedTypeName string
	// {CallerDeclaringType}
	DeclaringType string
	// {CallerDeclaringTypeName}，为空时从DeclaringType中取短名称
	DeclaringTypeName string
	// 类别，Function、Method或Closure
	Kind core.FuncKind
	// Go函数符号，用于手动日志定位调用方，可以为空
	Symbol string
}

func (mi MethodInfo) normalize() MethodInfo {
	if mi.ReflectedType == "" {
		mi.ReflectedType = mi.DeclaringType
	}
	if mi.DeclaringTypeName == "" {
		mi.DeclaringTypeName = core.ShortTypeName(mi.DeclaringType)
	}
	if mi.ReflectedTypeName == "" {
		mi.ReflectedTypeName = core.ShortTypeName(mi.ReflectedType)
	}
	if mi.FullDescription == "" {
		if mi.DeclaringType == "" {
			mi.FullDescription = mi.Name + "()"
		} else {
			mi.FullDescription = mi.DeclaringType + "." + mi.Name + "()"
		}
	}
	if mi.Kind == 0 {
		mi.Kind = core.FunctionKind
	}

	return mi
}

// Method 被追踪方法的身份标识，由Registry创建，按指针比较，创建后不再修改
type Method struct {
	id   uint64
	info MethodInfo
}

// ID 注册表内唯一的编号
func (m *Method) ID() uint64 {
	return m.id
}

// Info 返回方法的命名信息
func (m *Method) Info() MethodInfo {
	return m.info
}

func (m *Method) Name() string {
	return m.info.Name
}

func (m *Method) String() string {
	return m.info.FullDescription
}

// Lookup 实现core.Values，提供调用方相关的占位符取值
func (m *Method) Lookup(p core.Placeholder) (string, bool) {
	switch p {
	case core.CallerName:
		return m.info.Name, true
	case core.CallerFullDescription:
		return m.info.FullDescription, true
	case core.CallerReflectedType:
		return m.info.ReflectedType, true
	case core.CallerReflectedTypeName:
		return m.info.ReflectedTypeName, true
	case core.CallerDeclaringType:
		return m.info.DeclaringType, true
	case core.CallerDeclaringTypeName:
		return m.info.DeclaringTypeName, true
	default:
		return "", false
	}
}

type MethodOption func(*MethodInfo)

// WithReflectedType 使用v的类型作为{CallerReflectedType}，比如方法通过嵌入类型被调用时
func WithReflectedType(v any) MethodOption {
	return func(mi *MethodInfo) {
		typ := reflect.TypeOf(v)
		for typ != nil && typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ == nil {
			return
		}

		mi.ReflectedType, mi.ReflectedTypeName = qualifiedTypeName(typ), typ.Name()
	}
}

// WithName 覆盖{CallerName}
func WithName(name string) MethodOption {
	return func(mi *MethodInfo) {
		mi.Name = name
	}
}

// methodFromSymbol 根据Go函数符号构造命名信息
func methodFromSymbol(symbol string) MethodInfo {
	fi := core.ParseFuncName(symbol)
	return MethodInfo{
		Name:          fi.Name,
		DeclaringType: fi.DeclaringType(),
		Kind:          fi.Kind,
		Symbol:        strings.TrimSuffix(symbol, "-fm"),
	}.normalize()
}

// qualifiedTypeName 返回带包路径的类型名称，未命名类型返回String()
func qualifiedTypeName(typ reflect.Type) string {
	if typ.Name() == "" || typ.PkgPath() == "" {
		return typ.String()
	}

	return typ.PkgPath() + "." + typ.Name()
}

// Registry 方法到Sink的注册表。注册发生在初始化阶段，追踪期间只读。
// 状态机遇到未注册的方法属于集成错误，直接panic
type Registry struct {
	// 加锁保护
	lock sync.RWMutex
	// 方法对应的输出
	sinks map[*Method]Sink
	// Go函数符号到方法的映射，手动日志通过符号定位调用方
	symbols map[string]*Method
	// 编号生成
	nextID atomic.Uint64
	// 未注册的调用方，只用于填充占位符
	transient sync.Map
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:   make(map[*Method]Sink),
		symbols: make(map[string]*Method),
	}
}

// Register 注册方法，返回新创建的方法标识
func (r *Registry) Register(info MethodInfo, sink Sink) (*Method, error) {
	if sink == nil {
		return nil, errorx.ErrNilSink
	}
	if info.Name == "" {
		return nil, errorx.ErrEmptyMethodName
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if info.Symbol != "" {
		if m, ok := r.symbols[info.Symbol]; ok {
			return m, fmt.Errorf("%w: %s", errorx.ErrDuplicateMethod, info.Symbol)
		}
	}

	m := &Method{
		id:   r.nextID.Add(1),
		info: info.normalize(),
	}
	r.sinks[m] = sink
	if info.Symbol != "" {
		r.symbols[info.Symbol] = m
	}

	return m, nil
}

// RegisterFunc 注册一个Go函数或方法值，名称和签名通过反射获取。
// 重复注册同一个函数时返回已有的方法标识和ErrDuplicateMethod
func (r *Registry) RegisterFunc(fn any, sink Sink, opts ...MethodOption) (*Method, error) {
	info, err := describeFunc(fn)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(&info)
	}

	return r.Register(info, sink)
}

func describeFunc(fn any) (MethodInfo, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return MethodInfo{}, fmt.Errorf("%w: %T", errorx.ErrNotFunc, fn)
	}
	if v.IsNil() {
		return MethodInfo{}, errorx.ErrNilFunc
	}

	info := methodFromSymbol(core.FuncName(v.Pointer()))
	info.FullDescription = core.ParseFuncName(info.Symbol).QualifiedName() +
		strings.TrimPrefix(v.Type().String(), "func")

	return info, nil
}

// Sink 返回方法对应的输出，方法未注册时panic
func (r *Registry) Sink(m *Method) Sink {
	r.lock.RLock()
	s, ok := r.sinks[m]
	r.lock.RUnlock()

	if !ok {
		panic(fmt.Errorf("%w: %v", errorx.ErrMethodNotRegistered, m))
	}

	return s
}

// Registered 方法是否已注册
func (r *Registry) Registered(m *Method) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	_, ok := r.sinks[m]
	return ok
}

// Lookup 按Go函数符号查找已注册的方法
func (r *Registry) Lookup(symbol string) (*Method, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	m, ok := r.symbols[symbol]
	return m, ok
}

// Resolve 按符号查找方法，未注册的符号返回一个只用于格式化的临时方法标识，
// 同一个符号总是返回同一个临时标识
func (r *Registry) Resolve(symbol string) *Method {
	if m, ok := r.Lookup(symbol); ok {
		return m
	}

	if v, ok := r.transient.Load(symbol); ok {
		m, _ := v.(*Method)
		return m
	}

	m := &Method{info: methodFromSymbol(symbol)}
	v, _ := r.transient.LoadOrStore(symbol, m)
	m, _ = v.(*Method)
	return m
}

// Len 已注册的方法数量
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.sinks)
}
