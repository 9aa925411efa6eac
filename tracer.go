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
	"sync"
	"sync/atomic"

	"github.com/TimeWtr/tracex/errorx"
)

// foldOrigin 触发重复调用折叠的位置
type foldOrigin uint8

const (
	fromEnter foldOrigin = iota
	fromExit
	fromFinalizer
	fromLog
	fromFlush
)

// traceState 调用链状态
type traceState struct {
	// 最近一次进入的方法，进入日志可能还没有输出
	lastEntered *Method
	// 最近一次退出的方法
	lastExited *Method
	// lastEntered的进入日志是否已经输出
	loggedLastEntered bool
	// 连续重复的无子调用次数，不包含第一次
	repeatCount int
	// 当前缩进
	indent int
	// 上一次修改前的缩进
	previousIndent int
	// 最近一次缩进修改来自进入调用，缩进增量为0时也能判断调用层级
	afterEnter bool
}

// setIndent 修改缩进，同时保存修改前的值
func (s *traceState) setIndent(indent int) {
	s.previousIndent = s.indent
	s.indent = indent
}

// Tracer 调用链追踪状态机。OnEnter、OnExit和OnFinalizer必须按调用嵌套顺序成对调用，
// 每次进入都必须有且只有一次OnFinalizer。所有操作由同一把锁串行化，日志行的输出顺序
// 与事件顺序一致，多个goroutine并发追踪时调用链会交错，需要每个goroutine使用独立的Tracer
type Tracer struct {
	// 加锁保护状态和日志写入
	lock  sync.Mutex
	state traceState
	// 配置，每次操作读取一次
	config atomic.Pointer[Config]
	// 缩进增量，创建时确定，保证进入和退出的缩进可以抵消
	step      int
	registry  *Registry
	formatter *Formatter
	metrics   *traceMetrics
}

func NewTracer(opts ...Options) (*Tracer, error) {
	o := defaultTracerOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	formatter, err := NewFormatter(o.cacheSize)
	if err != nil {
		return nil, err
	}

	metrics, err := newTraceMetrics(o.provider)
	if err != nil {
		return nil, err
	}

	registry := o.registry
	if registry == nil {
		registry = NewRegistry()
	}

	t := &Tracer{
		step:      cfg.indentStep(),
		registry:  registry,
		formatter: formatter,
		metrics:   metrics,
	}
	t.state.indent = cfg.Indent.BaseIndent
	t.state.previousIndent = cfg.Indent.BaseIndent
	t.config.Store(cfg.Clone())

	return t, nil
}

// Registry 返回方法注册表
func (t *Tracer) Registry() *Registry {
	return t.registry
}

// Config 返回当前配置的副本
func (t *Tracer) Config() *Config {
	return t.config.Load().Clone()
}

// SetConfig 替换配置，从下一次操作开始生效。缩进增量和初始缩进在创建时已经确定，不受影响
func (t *Tracer) SetConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	t.config.Store(cfg.Clone())
	return nil
}

// Indent 返回当前缩进
func (t *Tracer) Indent() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.state.indent
}

// OnEnter 被追踪的调用开始前调用
func (t *Tracer) OnEnter(m *Method) {
	t.mustRegistered(m)

	t.lock.Lock()
	defer t.lock.Unlock()

	cfg := t.config.Load()
	s := &t.state
	if cfg.Format.CombineChildlessCalls {
		if cfg.Format.CombineRepeatCalls {
			t.foldRepeats(cfg, m, fromEnter)
			if s.lastExited == m && s.lastExited == s.lastEntered {
				s.repeatCount++
			}
		}

		// 新的调用说明上一次进入的方法有子调用，补上它的进入日志
		if s.lastEntered != nil && s.lastEntered != m && !s.loggedLastEntered && s.afterEnter {
			t.emit(cfg, EnterKind, s.lastEntered, s.previousIndent, nil, 0)
		}
		s.lastEntered = m
		s.loggedLastEntered = false
	} else {
		t.emit(cfg, EnterKind, m, s.indent, nil, 0)
	}

	s.setIndent(s.indent + t.step)
	s.afterEnter = true
}

// OnExit 被追踪的调用正常返回后调用，调用异常时不调用
func (t *Tracer) OnExit(m *Method) {
	t.mustRegistered(m)

	t.lock.Lock()
	defer t.lock.Unlock()

	cfg := t.config.Load()
	s := &t.state
	if !cfg.Format.CombineChildlessCalls {
		t.emit(cfg, ExitKind, m, s.indent-t.step, nil, 0)
		return
	}

	if cfg.Format.CombineRepeatCalls {
		t.foldRepeats(cfg, m, fromExit)
	}

	switch {
	case s.lastEntered != m || s.loggedLastEntered:
		t.emit(cfg, ExitKind, m, s.indent-t.step, nil, 0)
		if s.lastEntered == m {
			s.lastEntered = nil
		}
		s.loggedLastEntered = false
	case !cfg.Format.CombineRepeatCalls:
		t.emit(cfg, CombinedKind, m, s.indent-t.step, nil, 0)
	}
	s.lastExited = m
}

// OnFinalizer 被追踪的调用结束时调用，无论正常返回还是异常，err为nil表示正常返回
func (t *Tracer) OnFinalizer(m *Method, err error) {
	t.mustRegistered(m)

	t.lock.Lock()
	defer t.lock.Unlock()

	s := &t.state
	s.setIndent(s.indent - t.step)
	s.afterEnter = false
	if err == nil {
		return
	}

	cfg := t.config.Load()
	if cfg.Format.CombineChildlessCalls {
		if cfg.Format.CombineRepeatCalls {
			t.foldRepeats(cfg, m, fromFinalizer)
			t.flushOwnRun(cfg, m, s.indent)
		}
		if !s.loggedLastEntered && s.lastEntered == m {
			t.emit(cfg, EnterKind, m, s.indent, nil, 0)
		}

		s.loggedLastEntered = false
		s.repeatCount = 0
		s.lastExited = m
		s.lastEntered = nil
	}

	t.emit(cfg, ExceptionKind, m, s.indent, err, 0)
}

// Flush 输出还在等待中的重复调用，一段调用链结束时调用
func (t *Tracer) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	cfg := t.config.Load()
	if cfg.Format.CombineChildlessCalls && cfg.Format.CombineRepeatCalls {
		t.foldRepeats(cfg, nil, fromFlush)
	}

	t.state.lastExited = nil
	t.state.repeatCount = 0
}

// foldRepeats 把连续重复的无子调用合并为一行输出，m是打断重复的方法
func (t *Tracer) foldRepeats(cfg *Config, m *Method, origin foldOrigin) {
	s := &t.state
	if s.lastExited == nil || s.lastExited == m {
		return
	}

	// 显示的次数包含重复调用中的第一次
	indent, count := s.indent, s.repeatCount+1
	if origin == fromFinalizer {
		// 被折叠的调用是异常调用的子调用
		indent = s.previousIndent
	}

	emitted := false
	switch {
	case s.repeatCount > 0:
		t.emit(cfg, CombinedKind, s.lastExited, indent, nil, count)
		s.repeatCount = 0
		emitted = true
	case s.lastExited == s.lastEntered:
		t.emit(cfg, CombinedKind, s.lastExited, indent, nil, 0)
		emitted = true
	}

	// 手动日志打断重复调用
	if origin == fromLog && emitted {
		s.lastExited = m
	}
}

// flushOwnRun m本身处在重复调用中并且这一次调用的日志需要单独输出时，
// 先输出之前已经正常结束的重复调用
func (t *Tracer) flushOwnRun(cfg *Config, m *Method, indent int) {
	s := &t.state
	if m == nil || s.lastExited != m || s.repeatCount == 0 {
		return
	}

	count := s.repeatCount
	if count == 1 {
		count = 0
	}
	t.emit(cfg, CombinedKind, m, indent, nil, count)
	s.repeatCount = 0
}

// logManual 手动日志与调用链同步：先折叠重复调用、补上调用方的进入日志，再写入日志行
func (t *Tracer) logManual(caller *Method, render func(cfg *Config, indent int) string, write func(line string)) {
	t.lock.Lock()
	defer t.lock.Unlock()

	cfg := t.config.Load()
	s := &t.state
	if cfg.Format.CombineChildlessCalls {
		if cfg.Format.CombineRepeatCalls {
			t.foldRepeats(cfg, caller, fromLog)
			t.flushOwnRun(cfg, caller, s.previousIndent)
		}
		if caller != nil && !s.loggedLastEntered && s.lastEntered == caller {
			t.emit(cfg, EnterKind, caller, s.previousIndent, nil, 0)
			s.loggedLastEntered = true
		}
	}

	write(render(cfg, s.indent))
}

// emit 格式化并写入一行调用链日志，关闭日志或调用链日志时只更新状态不输出
func (t *Tracer) emit(cfg *Config, kind Kind, m *Method, indent int, err error, count int) {
	sink := t.registry.Sink(m)
	if !cfg.CreateLogs || !cfg.CreateCallTrace {
		return
	}

	sink.Write(DebugLevel, t.formatter.FormatCall(cfg, kind, m, indent, err, count))
	t.metrics.traceLine(kind)
}

// mustRegistered 状态机只接受已注册的方法
func (t *Tracer) mustRegistered(m *Method) {
	if m == nil {
		panic(errorx.ErrMethodNotRegistered)
	}
	t.registry.Sink(m)
}
