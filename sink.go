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
	"io"
	"log"
	"sync"

	"github.com/TimeWtr/tracex/core"
	"github.com/TimeWtr/tracex/errorx"
)

// Sink 格式化后的日志行的输出目标，Write不返回错误，调用方不关心写入结果
type Sink interface {
	Write(level LogLevel, line string)
}

// SinkFunc 函数适配Sink
type SinkFunc func(level LogLevel, line string)

func (f SinkFunc) Write(level LogLevel, line string) {
	f(level, line)
}

// DefaultFlags 默认的日志时间格式
const DefaultFlags = log.Ldate | log.Lmicroseconds

type sinkConfig struct {
	name        string
	enableColor bool
	flags       int
	fileOpts    []core.FileOption
}

type SinkOption func(*sinkConfig)

// WithSinkName 设置输出来源名称，出现在级别标签中，比如"[DEBUG:worker]"
func WithSinkName(name string) SinkOption {
	return func(c *sinkConfig) {
		c.name = name
	}
}

// WithColor 开启级别标签颜色
func WithColor() SinkOption {
	return func(c *sinkConfig) {
		c.enableColor = true
	}
}

// WithFlags 设置log包的时间格式，0表示不输出时间
func WithFlags(flags int) SinkOption {
	return func(c *sinkConfig) {
		c.flags = flags
	}
}

// WithFileOptions 设置文件输出的轮转参数，只对NewFileSink生效
func WithFileOptions(opts ...core.FileOption) SinkOption {
	return func(c *sinkConfig) {
		c.fileOpts = append(c.fileOpts, opts...)
	}
}

// WriterSink 把日志行写入io.Writer，每行带级别标签
type WriterSink struct {
	// 加锁保护
	lock sync.Mutex
	// 原生日志
	lg *log.Logger
	// 日志加颜色输出
	cp   ColorPlugin
	name string
	// 需要在关闭时释放的资源
	closer io.Closer
}

func NewWriterSink(w io.Writer, opts ...SinkOption) (*WriterSink, error) {
	if w == nil {
		return nil, errorx.ErrNilSink
	}

	cfg := &sinkConfig{flags: DefaultFlags}
	for _, opt := range opts {
		opt(cfg)
	}

	return newWriterSink(w, cfg), nil
}

func newWriterSink(w io.Writer, cfg *sinkConfig) *WriterSink {
	return &WriterSink{
		lg:   log.New(w, "", cfg.flags),
		cp:   NewColorPlugin(cfg.enableColor),
		name: cfg.name,
	}
}

// NewFileSink 输出到文件，按大小和按天轮转
func NewFileSink(filename string, opts ...SinkOption) (*WriterSink, error) {
	cfg := &sinkConfig{flags: DefaultFlags}
	for _, opt := range opts {
		opt(cfg)
	}

	fw, err := core.NewFileWriter(filename, cfg.fileOpts...)
	if err != nil {
		return nil, err
	}

	s := newWriterSink(fw, cfg)
	s.closer = fw
	return s, nil
}

func (s *WriterSink) Write(level LogLevel, line string) {
	tag := level.UpperString()
	if s.name != "" {
		tag += ":" + s.name
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.lg.Println(s.cp.Format(level, tag) + line)
}

// Close 释放底层资源，io.Writer不是由WriterSink创建时什么都不做
func (s *WriterSink) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}
