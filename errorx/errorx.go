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

package errorx

import "errors"

var (
	ErrSinkClosed = errors.New("sink is closed")
	ErrSinkFull   = errors.New("sink is full")
	ErrNilSink    = errors.New("sink cannot be nil")
	ErrNilTracer  = errors.New("tracer cannot be nil")
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidConfig = errors.New("invalid config")
	ErrNilConfig     = errors.New("config cannot be nil")
	ErrEmptyPath     = errors.New("config path is empty")
	ErrUnsupported   = errors.New("unsupported config format")
	ErrLoadFailed    = errors.New("failed to load config")
)

var (
	ErrNotFunc             = errors.New("target is not a function")
	ErrNilFunc             = errors.New("target function is nil")
	ErrEmptyMethodName     = errors.New("method name is empty")
	ErrDuplicateMethod     = errors.New("method already registered")
	ErrMethodNotRegistered = errors.New("method not registered")
)
