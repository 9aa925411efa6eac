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

import "fmt"

// PanicError 被追踪的调用发生panic时作为异常传给OnFinalizer，Value是recover得到的值
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// run 按OnEnter、fn、OnExit、OnFinalizer的顺序执行一次被追踪的调用。
// fn返回的错误作为异常，不调用OnExit；panic被记录为异常后继续向上抛出。
// t或m为nil时直接调用fn，不做追踪
func (t *Tracer) run(m *Method, fn func() error) (err error) {
	if t == nil || m == nil {
		return fn()
	}

	t.OnEnter(m)
	defer func() {
		if r := recover(); r != nil {
			t.OnFinalizer(m, &PanicError{Value: r})
			panic(r)
		}
		t.OnFinalizer(m, err)
	}()

	if err = fn(); err != nil {
		return err
	}
	t.OnExit(m)

	return nil
}

// Call 追踪一次调用
func (t *Tracer) Call(m *Method, fn func()) {
	_ = t.run(m, func() error {
		fn()
		return nil
	})
}

// CallErr 追踪一次返回错误的调用，返回的错误会作为异常输出
func (t *Tracer) CallErr(m *Method, fn func() error) error {
	return t.run(m, fn)
}

// Wrap 返回被追踪的函数，每次调用都会产生进入和退出事件
func (t *Tracer) Wrap(m *Method, fn func()) func() {
	return func() {
		t.Call(m, fn)
	}
}

// WrapFunc 包装返回结果和错误的函数
func WrapFunc[R any](t *Tracer, m *Method, fn func() (R, error)) func() (R, error) {
	return func() (R, error) {
		var r R
		err := t.run(m, func() error {
			var err error
			r, err = fn()
			return err
		})

		return r, err
	}
}

// WrapFunc1 包装一个参数的函数
func WrapFunc1[A, R any](t *Tracer, m *Method, fn func(A) (R, error)) func(A) (R, error) {
	return func(a A) (R, error) {
		var r R
		err := t.run(m, func() error {
			var err error
			r, err = fn(a)
			return err
		})

		return r, err
	}
}
