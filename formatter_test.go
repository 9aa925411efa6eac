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
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMethod(t *testing.T) *Method {
	t.Helper()

	m, err := NewRegistry().Register(MethodInfo{
		Name:          "Run",
		DeclaringType: "github.com/demo/app.Worker",
	}, &recorder{})
	require.NoError(t, err)

	return m
}

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()

	f, err := NewFormatter(8)
	require.NoError(t, err)
	return f
}

func TestFormatter_FormatCall(t *testing.T) {
	m := newTestMethod(t)
	f := newTestFormatter(t)

	testCases := []struct {
		name   string
		modify func(cfg *Config)
		kind   Kind
		indent int
		err    error
		count  int
		want   string
	}{
		{
			name:   "默认配置进入",
			kind:   EnterKind,
			indent: 1,
			want:   "| -> Run() <> github.com/demo/app.Worker",
		},
		{
			name:   "默认配置退出",
			kind:   ExitKind,
			indent: 3,
			want:   "|   <- Run() <> github.com/demo/app.Worker",
		},
		{
			name:   "重复次数",
			kind:   CombinedKind,
			indent: 1,
			count:  3,
			want:   "| <->  (3) Run() <> github.com/demo/app.Worker",
		},
		{
			name:   "异常",
			kind:   ExceptionKind,
			indent: 1,
			err:    errors.New("boom"),
			want:   "| !! Run() <!> *errors.errorString: boom",
		},
		{
			name: "Runner缩进",
			modify: func(cfg *Config) {
				cfg.Indent.RunnerIndent = 2
				cfg.Symbols.Runner = "#"
			},
			kind:   EnterKind,
			indent: 1,
			want:   "  # -> Run() <> github.com/demo/app.Worker",
		},
		{
			name: "关闭Runner",
			modify: func(cfg *Config) {
				cfg.Format.EnableRunner = false
				cfg.Indent.RunnerIndent = 2
			},
			kind:   EnterKind,
			indent: 1,
			want:   " -> Run() <> github.com/demo/app.Worker",
		},
		{
			name: "关闭标记",
			modify: func(cfg *Config) {
				cfg.Format.EnableMarkers = false
			},
			kind:   CombinedKind,
			indent: 1,
			want:   "| Run() <> github.com/demo/app.Worker",
		},
		{
			name: "空分隔符",
			modify: func(cfg *Config) {
				cfg.Symbols.CallSeparator = ""
			},
			kind:   EnterKind,
			indent: 0,
			want:   "|-> Run() github.com/demo/app.Worker",
		},
		{
			name: "异常不缩进",
			modify: func(cfg *Config) {
				cfg.Indent.IndentExceptions = false
			},
			kind:   ExceptionKind,
			indent: 7,
			err:    errors.New("boom"),
			want:   "| !! Run() <!> *errors.errorString: boom",
		},
		{
			name: "短名称",
			modify: func(cfg *Config) {
				cfg.Information.CallInfo = "{CallerDeclaringTypeName}.{CallerName}"
			},
			kind:   EnterKind,
			indent: 1,
			want:   "| -> Run() <> Worker.Run",
		},
		{
			name: "带包路径的异常类型",
			modify: func(cfg *Config) {
				cfg.Information.ExceptionInfo = "{ExceptionType} {ExceptionTypeName} {ExceptionMessage}"
			},
			kind:   ExceptionKind,
			indent: 1,
			err:    &fs.PathError{Op: "open", Path: "a.txt", Err: fs.ErrNotExist},
			want:   "| !! Run() <!> *io/fs.PathError PathError open a.txt: file does not exist",
		},
		{
			name:   "panic异常",
			kind:   ExceptionKind,
			indent: 1,
			err:    &PanicError{Value: "boom"},
			want:   "| !! Run() <!> string: boom",
		},
		{
			name:   "异常信息中的大括号不被替换",
			kind:   ExceptionKind,
			indent: 1,
			err:    errors.New("bad {CallerName}"),
			want:   "| !! Run() <!> *errors.errorString: bad {CallerName}",
		},
		{
			name: "标记中的占位符被替换",
			modify: func(cfg *Config) {
				cfg.Symbols.EnterMarker = "{CallerName}:"
			},
			kind:   EnterKind,
			indent: 1,
			want:   "| Run: Run() <> github.com/demo/app.Worker",
		},
		{
			name: "分隔符中的占位符被替换",
			modify: func(cfg *Config) {
				cfg.Symbols.ExceptionSeparator = "<{ExceptionTypeName}>"
			},
			kind:   ExceptionKind,
			indent: 1,
			err:    errors.New("boom"),
			want:   "| !! Run() <errorString> *errors.errorString: boom",
		},
		{
			name:   "非异常行的异常占位符原样输出",
			modify: func(cfg *Config) { cfg.Information.CallInfo = "{ExceptionMessage}" },
			kind:   EnterKind,
			indent: 1,
			want:   "| -> Run() <> {ExceptionMessage}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tc.modify != nil {
				tc.modify(cfg)
			}
			assert.Equal(t, tc.want, f.FormatCall(cfg, tc.kind, m, tc.indent, tc.err, tc.count))
		})
	}
}

func TestFormatter_AllPlaceholders(t *testing.T) {
	m := newTestMethod(t)
	f := newTestFormatter(t)

	var all []string
	for _, p := range []string{
		"CallerName", "CallerFullDescription", "CallerReflectedType", "CallerReflectedTypeName",
		"CallerDeclaringType", "CallerDeclaringTypeName",
		"ExceptionType", "ExceptionTypeName", "ExceptionMessage",
	} {
		all = append(all, "{"+p+"}")
	}

	cfg := DefaultConfig()
	cfg.Information.ExceptionSource = strings.Join(all, " ")
	cfg.Information.ExceptionInfo = strings.Join(all, ",")

	got := f.FormatCall(cfg, ExceptionKind, m, 1, fmt.Errorf("wrapped: %w", fs.ErrClosed), 0)
	assert.NotContains(t, got, "{")
	assert.NotContains(t, got, "}")
	assert.Contains(t, got, "Run github.com/demo/app.Worker.Run() github.com/demo/app.Worker Worker")
	assert.Contains(t, got, "*fmt.wrapError wrapError wrapped: file already closed")
}

func TestFormatter_FormatManual(t *testing.T) {
	m := newTestMethod(t)
	f := newTestFormatter(t)

	testCases := []struct {
		name         string
		modify       func(cfg *Config)
		debugEnabled bool
		want         string
	}{
		{
			name:         "开启Debug按调用链缩进",
			debugEnabled: true,
			want:         "|     hello Run",
		},
		{
			name:         "未开启Debug原样输出",
			debugEnabled: false,
			want:         "hello Run",
		},
		{
			name: "手动日志不缩进",
			modify: func(cfg *Config) {
				cfg.Indent.IndentManualLogs = false
			},
			debugEnabled: true,
			want:         "| hello Run",
		},
		{
			name: "调用链中显示来源",
			modify: func(cfg *Config) {
				cfg.Format.ShowSourceOfManualLogsInCallTrace = true
			},
			debugEnabled: true,
			want:         "|     [github.com/demo/app.Worker::Run]: hello Run",
		},
		{
			name: "调用链外显示来源",
			modify: func(cfg *Config) {
				cfg.Format.ShowSourceOfManualLogs = true
			},
			debugEnabled: false,
			want:         "[github.com/demo/app.Worker::Run]: hello Run",
		},
		{
			name: "开启Debug时只看调用链中的来源开关",
			modify: func(cfg *Config) {
				cfg.Format.ShowSourceOfManualLogs = true
			},
			debugEnabled: true,
			want:         "|     hello Run",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tc.modify != nil {
				tc.modify(cfg)
			}
			assert.Equal(t, tc.want, f.FormatManual(cfg, "hello {CallerName}", m, 5, tc.debugEnabled))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "enter", EnterKind.String())
	assert.Equal(t, "exit", ExitKind.String())
	assert.Equal(t, "combined", CombinedKind.String())
	assert.Equal(t, "exception", ExceptionKind.String())
	assert.Equal(t, "unknown kind(9)", Kind(9).String())
}

func TestFormatter_FormatManualBraces(t *testing.T) {
	m := newTestMethod(t)
	f := newTestFormatter(t)
	cfg := DefaultConfig()

	testCases := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "调用方占位符",
			message: "in {CallerName} of {CallerDeclaringTypeName}",
			want:    "in Run of Worker",
		},
		{
			name:    "未知占位符和转义原样保留",
			message: "a {Unknown} {{x}} {CallerName}",
			want:    "a {Unknown} {{x}} Run",
		},
		{
			name:    "没有异常时异常占位符原样保留",
			message: "{ExceptionMessage}",
			want:    "{ExceptionMessage}",
		},
		{
			name:    "未闭合的大括号",
			message: "map{a: {CallerName",
			want:    "map{a: {CallerName",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.FormatManual(cfg, tc.message, m, 0, false))
		})
	}
}
