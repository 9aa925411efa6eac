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
	"io"
	"sync"
	"sync/atomic"

	"github.com/TimeWtr/tracex/errorx"
	"golang.org/x/sync/errgroup"
)

// DefaultAsyncCapacity 异步缓冲通道的默认容量
const DefaultAsyncCapacity = 1024

type record struct {
	level LogLevel
	line  string
}

// AsyncSink 异步输出，Write只把日志行放入缓冲通道，后台goroutine按顺序写入下游。
// 缓冲通道满时丢弃日志行并计数，Write永远不会阻塞调用链
type AsyncSink struct {
	next Sink
	// 缓冲通道
	ch chan record
	// 加锁保护closed和ch的关闭
	lock   sync.RWMutex
	closed bool
	// goroutine管理
	eg errgroup.Group
	// 单例
	once sync.Once
	// 丢弃的日志行数量
	dropped atomic.Int64
}

// NewAsyncSink capacity为缓冲通道的容量，小于等于0时使用默认容量
func NewAsyncSink(next Sink, capacity int) (*AsyncSink, error) {
	if next == nil {
		return nil, errorx.ErrNilSink
	}
	if capacity <= 0 {
		capacity = DefaultAsyncCapacity
	}

	a := &AsyncSink{
		next: next,
		ch:   make(chan record, capacity),
	}
	a.eg.Go(a.asyncWorker)

	return a, nil
}

func (a *AsyncSink) Write(level LogLevel, line string) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	if a.closed {
		a.dropped.Add(1)
		return
	}

	select {
	case a.ch <- record{level: level, line: line}:
	default:
		a.dropped.Add(1)
	}
}

// asyncWorker 把缓冲通道中的日志行写入下游，通道关闭后退出
func (a *AsyncSink) asyncWorker() error {
	for r := range a.ch {
		a.next.Write(r.level, r.line)
	}

	return nil
}

// Dropped 返回因为通道已满或已关闭被丢弃的日志行数量
func (a *AsyncSink) Dropped() int64 {
	return a.dropped.Load()
}

// Close 关闭通道，等待缓冲的日志行全部写入下游后关闭下游，可重复调用
func (a *AsyncSink) Close() error {
	var err error
	a.once.Do(func() {
		a.lock.Lock()
		a.closed = true
		close(a.ch)
		a.lock.Unlock()

		err = a.eg.Wait()
		if c, ok := a.next.(io.Closer); ok {
			err = errors.Join(err, c.Close())
		}
	})

	return err
}
