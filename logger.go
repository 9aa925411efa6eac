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
	"io"
	"sync"
	"sync/atomic"

	"github.com/TimeWtr/tracex/core"
	"github.com/TimeWtr/tracex/errorx"
)

// callerSkip 从Logger.log向上跳过的栈帧数量：log、公开的日志方法
const callerSkip = 2

// Logger 手动日志入口，与Tracer共享调用链状态，手动日志可以按调用层级缩进输出。
// 调用链日志固定在DebugLevel，Logger没有开启DebugLevel时不注册追踪
type Logger struct {
	tracer *Tracer
	// 加锁保护sink的替换
	lock sync.RWMutex
	sink Sink
	// 日志级别
	level atomic.Uint32
	// 注册到Registry的输出，按当前级别和当前sink转发调用链日志
	traceSink Sink
}

func NewLogger(t *Tracer, sink Sink, level LogLevel) (*Logger, error) {
	if t == nil {
		return nil, errorx.ErrNilTracer
	}
	if sink == nil {
		return nil, errorx.ErrNilSink
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", errorx.ErrInvalidLevel, level)
	}

	l := &Logger{
		tracer: t,
		sink:   sink,
	}
	l.level.Store(uint32(level))
	l.traceSink = SinkFunc(func(level LogLevel, line string) {
		if l.Level().Enabled(level) {
			l.Sink().Write(level, line)
		}
	})

	return l, nil
}

// Tracer 返回Logger使用的状态机
func (l *Logger) Tracer() *Tracer {
	return l.tracer
}

func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.Load())
}

// SetLevel 修改日志级别，非法的级别返回ErrInvalidLevel
func (l *Logger) SetLevel(level LogLevel) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %d", errorx.ErrInvalidLevel, level)
	}

	l.level.Store(uint32(level))
	return nil
}

func (l *Logger) Sink() Sink {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.sink
}

// SetSink 替换输出，已注册的方法的调用链日志也会写入新的输出
func (l *Logger) SetSink(sink Sink) error {
	if sink == nil {
		return errorx.ErrNilSink
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.sink = sink
	return nil
}

// Log 输出一条手动日志，includeInCallTrace为true时按调用链格式化，
// 否则原样输出。非法的级别返回ErrInvalidLevel
func (l *Logger) Log(level LogLevel, data any, includeInCallTrace bool) error {
	return l.log(level, data, includeInCallTrace)
}

func (l *Logger) log(level LogLevel, data any, includeInCallTrace bool) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %d", errorx.ErrInvalidLevel, level)
	}

	current := l.Level()
	cfg := l.tracer.config.Load()
	if !cfg.CreateLogs || !current.Enabled(level) {
		return nil
	}

	caller := l.tracer.registry.Resolve(core.CallerFunction(callerSkip))
	message := fmt.Sprint(data)
	debugEnabled := current.Enabled(DebugLevel)
	sink := l.Sink()

	l.tracer.logManual(caller,
		func(cfg *Config, indent int) string {
			if !includeInCallTrace {
				return message
			}
			return l.tracer.formatter.FormatManual(cfg, message, caller, indent, debugEnabled)
		},
		func(line string) {
			sink.Write(level, line)
			l.tracer.metrics.manualLog(level)
		})

	return nil
}

func (l *Logger) Fatal(v ...any) {
	_ = l.log(FatalLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Error(v ...any) {
	_ = l.log(ErrorLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Warning(v ...any) {
	_ = l.log(WarningLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Message(v ...any) {
	_ = l.log(MessageLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Info(v ...any) {
	_ = l.log(InfoLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Debug(v ...any) {
	_ = l.log(DebugLevel, fmt.Sprint(v...), true)
}

func (l *Logger) Fatalf(format string, v ...any) {
	_ = l.log(FatalLevel, fmt.Sprintf(format, v...), true)
}

func (l *Logger) Errorf(format string, v ...any) {
	_ = l.log(ErrorLevel, fmt.Sprintf(format, v...), true)
}

func (l *Logger) Warningf(format string, v ...any) {
	_ = l.log(WarningLevel, fmt.Sprintf(format, v...), true)
}

func (l *Logger) Messagef(format string, v ...any) {
	_ = l.log(MessageLevel, fmt.Sprintf(format, v...), true)
}

func (l *Logger) Infof(format string, v ...any) {
	_ = l.log(InfoLevel, fmt.Sprintf(format, v...), true)
}

func (l *Logger) Debugf(format string, v ...any) {
	_ = l.log(DebugLevel, fmt.Sprintf(format, v...), true)
}

// traceEnabled 是否需要为这个Logger注册追踪
func (l *Logger) traceEnabled() bool {
	cfg := l.tracer.config.Load()
	return cfg.CreateLogs && cfg.CreateCallTrace && l.Level().Enabled(DebugLevel)
}

// LogCalls 注册函数或方法值的调用链追踪，返回的方法标识用于Tracer的包装函数。
// 没有开启调用链日志时不注册，返回nil；重复注册返回已有的方法标识。
// 注册失败时在ErrorLevel输出原因
func (l *Logger) LogCalls(fn any, opts ...MethodOption) (*Method, error) {
	if !l.traceEnabled() {
		return nil, nil
	}

	m, err := l.tracer.registry.RegisterFunc(fn, l.traceSink, opts...)
	return l.registered(m, err, fmt.Sprintf("%T", fn))
}

// LogCallsInfo 使用给定的命名信息注册追踪，适用于无法通过反射获得名称的调用
func (l *Logger) LogCallsInfo(info MethodInfo) (*Method, error) {
	if !l.traceEnabled() {
		return nil, nil
	}

	m, err := l.tracer.registry.Register(info, l.traceSink)
	return l.registered(m, err, info.Name)
}

func (l *Logger) registered(m *Method, err error, target string) (*Method, error) {
	switch {
	case errors.Is(err, errorx.ErrDuplicateMethod):
		return m, nil
	case err != nil:
		l.Sink().Write(ErrorLevel, fmt.Sprintf("Failed to log calls of %s: %v", target, err))
		return nil, err
	}

	l.Sink().Write(DebugLevel, fmt.Sprintf("Logging %s: %s", m.Info().Kind, m))
	return m, nil
}

// Close 输出等待中的重复调用，关闭可以关闭的输出
func (l *Logger) Close() error {
	l.tracer.Flush()

	if c, ok := l.Sink().(io.Closer); ok {
		return c.Close()
	}

	return nil
}
