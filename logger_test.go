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
	"strings"
	"testing"

	"github.com/TimeWtr/tracex/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracedLeaf(l *Logger) {
	l.Info("inside")
}

func newTestLogger(t *testing.T, cfg *Config, level LogLevel) (*Logger, *recorder) {
	t.Helper()

	tr, err := NewTracer(WithConfig(cfg))
	require.NoError(t, err)

	rec := &recorder{}
	l, err := NewLogger(tr, rec, level)
	require.NoError(t, err)

	return l, rec
}

func TestNewLogger(t *testing.T) {
	tr, err := NewTracer()
	require.NoError(t, err)

	_, err = NewLogger(nil, &recorder{}, AllLevel)
	assert.ErrorIs(t, err, errorx.ErrNilTracer)
	_, err = NewLogger(tr, nil, AllLevel)
	assert.ErrorIs(t, err, errorx.ErrNilSink)
	_, err = NewLogger(tr, &recorder{}, LogLevel(1<<8))
	assert.ErrorIs(t, err, errorx.ErrInvalidLevel)

	l, err := NewLogger(tr, &recorder{}, DefaultLevel)
	require.NoError(t, err)
	assert.Equal(t, DefaultLevel, l.Level())
	assert.Same(t, tr, l.Tracer())
}

func TestLogger_Log(t *testing.T) {
	testCases := []struct {
		name      string
		level     LogLevel
		modify    func(cfg *Config)
		logLevel  LogLevel
		include   bool
		wantLines []string
		wantErr   error
	}{
		{
			name:      "开启Debug按调用链格式化",
			level:     AllLevel,
			logLevel:  InfoLevel,
			include:   true,
			wantLines: []string{"hello tracex {Unknown}"},
		},
		{
			name:      "不按调用链格式化",
			level:     AllLevel,
			modify:    func(cfg *Config) { cfg.Indent.BaseIndent = 4 },
			logLevel:  InfoLevel,
			include:   false,
			wantLines: []string{"hello {CallerDeclaringTypeName} {Unknown}"},
		},
		{
			name:      "按调用链缩进",
			level:     AllLevel,
			modify:    func(cfg *Config) { cfg.Indent.BaseIndent = 4 },
			logLevel:  InfoLevel,
			include:   true,
			wantLines: []string{"    hello tracex {Unknown}"},
		},
		{
			name:      "级别未开启",
			level:     ErrorLevel,
			logLevel:  InfoLevel,
			include:   true,
			wantLines: nil,
		},
		{
			name:      "关闭日志",
			level:     AllLevel,
			modify:    func(cfg *Config) { cfg.CreateLogs = false },
			logLevel:  InfoLevel,
			include:   true,
			wantLines: nil,
		},
		{
			name:     "非法级别",
			level:    AllLevel,
			logLevel: LogLevel(1 << 9),
			include:  true,
			wantErr:  errorx.ErrInvalidLevel,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			if tc.modify != nil {
				tc.modify(cfg)
			}
			l, rec := newTestLogger(t, cfg, tc.level)

			err := l.Log(tc.logLevel, "hello {CallerDeclaringTypeName} {Unknown}", tc.include)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLines, rec.Lines())
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)

	l.Fatal("f")
	l.Error("e")
	l.Warning("w")
	l.Message("m")
	l.Info("i")
	l.Debug("d")
	l.Fatalf("%s", "f")
	l.Errorf("%s", "e")
	l.Warningf("%s", "w")
	l.Messagef("%s", "m")
	l.Infof("%s", "i")
	l.Debugf("%s", "d")

	assert.Equal(t, []string{"f", "e", "w", "m", "i", "d", "f", "e", "w", "m", "i", "d"}, rec.Lines())
	assert.Equal(t, []LogLevel{
		FatalLevel, ErrorLevel, WarningLevel, MessageLevel, InfoLevel, DebugLevel,
		FatalLevel, ErrorLevel, WarningLevel, MessageLevel, InfoLevel, DebugLevel,
	}, rec.levels)

	require.NoError(t, l.SetLevel(WarningLevel|ErrorLevel))
	rec.Reset()
	l.Info("i")
	l.Warning("w")
	assert.Equal(t, []string{"w"}, rec.Lines())

	assert.ErrorIs(t, l.SetLevel(LogLevel(1<<10)), errorx.ErrInvalidLevel)
}

func TestLogger_ShowSource(t *testing.T) {
	cfg := testConfig()
	cfg.Format.ShowSourceOfManualLogs = true
	l, rec := newTestLogger(t, cfg, InfoLevel)

	l.Info("hello")
	require.Len(t, rec.Lines(), 1)
	assert.Equal(t, "[github.com/TimeWtr/tracex::TestLogger_ShowSource]: hello", rec.Lines()[0])
}

func TestLogger_FlushDeferredEnter(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)

	m, err := l.LogCalls(tracedLeaf)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []string{"Logging Function: github.com/TimeWtr/tracex.tracedLeaf(*tracex.Logger)"}, rec.Lines())
	rec.Reset()

	l.Tracer().Call(m, func() { tracedLeaf(l) })
	assert.Equal(t, []string{
		"-> tracedLeaf() <> tracex",
		"  inside",
		"<- tracedLeaf() <> tracex",
	}, rec.Lines())
	assert.Equal(t, []LogLevel{DebugLevel, InfoLevel, DebugLevel}, rec.levels)
}

func describedLeaf(l *Logger) {
	l.Info("in {CallerName} of {CallerDeclaringTypeName}")
}

func TestLogger_CallerPlaceholders(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)

	m, err := l.LogCalls(describedLeaf)
	require.NoError(t, err)
	require.NotNil(t, m)
	rec.Reset()

	l.Tracer().Call(m, func() { describedLeaf(l) })
	assert.Equal(t, []string{
		"-> describedLeaf() <> tracex",
		"  in describedLeaf of tracex",
		"<- describedLeaf() <> tracex",
	}, rec.Lines())

	// 没有开启Debug时同样替换
	rec.Reset()
	require.NoError(t, l.SetLevel(InfoLevel))
	describedLeaf(l)
	assert.Equal(t, []string{"in describedLeaf of tracex"}, rec.Lines())
}

func TestLogger_BreakRepeatRun(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)
	tr := l.Tracer()
	b, err := tr.Registry().Register(MethodInfo{Name: "B", DeclaringType: "demo.Worker"}, rec)
	require.NoError(t, err)

	leaf(tr, b)
	leaf(tr, b)
	require.NoError(t, l.Log(InfoLevel, "between", true))
	leaf(tr, b)
	require.NoError(t, l.Close())

	assert.Equal(t, []string{
		"<->  (2) B() <> Worker",
		"between",
		"<-> B() <> Worker",
	}, rec.Lines())
	assert.Equal(t, []LogLevel{DebugLevel, InfoLevel, DebugLevel}, rec.levels)
}

func TestLogger_LogInsideRepeatRun(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)
	m, err := l.LogCalls(tracedLeaf)
	require.NoError(t, err)

	tr := l.Tracer()
	leafCall := func() {
		tr.OnEnter(m)
		tracedLeaf(l)
		tr.OnExit(m)
		tr.OnFinalizer(m, nil)
	}
	rec.Reset()

	// 前两次调用只进入退出，第三次调用时输出手动日志
	leaf(tr, m)
	leaf(tr, m)
	leafCall()
	require.NoError(t, l.Close())

	assert.Equal(t, []string{
		"<->  (2) tracedLeaf() <> tracex",
		"-> tracedLeaf() <> tracex",
		"  inside",
		"<- tracedLeaf() <> tracex",
	}, rec.Lines())
}

func TestLogger_LogCalls(t *testing.T) {
	t.Run("未开启Debug不注册", func(t *testing.T) {
		l, rec := newTestLogger(t, testConfig(), DefaultLevel)
		m, err := l.LogCalls(tracedLeaf)
		assert.NoError(t, err)
		assert.Nil(t, m)
		assert.Empty(t, rec.Lines())
		assert.Equal(t, 0, l.Tracer().Registry().Len())
	})

	t.Run("关闭调用链日志不注册", func(t *testing.T) {
		cfg := testConfig()
		cfg.CreateCallTrace = false
		l, _ := newTestLogger(t, cfg, AllLevel)
		m, err := l.LogCalls(tracedLeaf)
		assert.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("重复注册", func(t *testing.T) {
		l, rec := newTestLogger(t, testConfig(), AllLevel)
		m1, err := l.LogCalls(tracedLeaf)
		require.NoError(t, err)
		m2, err := l.LogCalls(tracedLeaf)
		require.NoError(t, err)
		assert.Same(t, m1, m2)
		assert.Len(t, rec.Lines(), 1)
	})

	t.Run("注册失败输出错误日志", func(t *testing.T) {
		l, rec := newTestLogger(t, testConfig(), AllLevel)
		m, err := l.LogCalls(42)
		assert.ErrorIs(t, err, errorx.ErrNotFunc)
		assert.Nil(t, m)
		require.Len(t, rec.Lines(), 1)
		assert.Equal(t, ErrorLevel, rec.levels[0])
		assert.True(t, strings.HasPrefix(rec.Lines()[0], "Failed to log calls of int"))

		// 失败之后继续注册其他方法
		m, err = l.LogCalls(tracedLeaf)
		assert.NoError(t, err)
		assert.NotNil(t, m)
	})

	t.Run("使用命名信息注册", func(t *testing.T) {
		l, rec := newTestLogger(t, testConfig(), AllLevel)
		m, err := l.LogCallsInfo(MethodInfo{Name: "Handle", DeclaringType: "demo.Server", Kind: MethodKind})
		require.NoError(t, err)
		assert.Equal(t, "Handle", m.Name())
		assert.Equal(t, []string{"Logging Method: demo.Server.Handle()"}, rec.Lines())

		_, err = l.LogCallsInfo(MethodInfo{})
		assert.ErrorIs(t, err, errorx.ErrEmptyMethodName)
	})
}

func TestLogger_TraceFollowsLevel(t *testing.T) {
	l, rec := newTestLogger(t, testConfig(), AllLevel)
	m, err := l.LogCalls(tracedLeaf)
	require.NoError(t, err)
	rec.Reset()

	require.NoError(t, l.SetLevel(InfoLevel))
	l.Tracer().Call(m, func() {})
	require.NoError(t, l.Close())
	assert.Empty(t, rec.Lines())

	other := &recorder{}
	require.NoError(t, l.SetLevel(AllLevel))
	require.NoError(t, l.SetSink(other))
	assert.ErrorIs(t, l.SetSink(nil), errorx.ErrNilSink)
	l.Tracer().Call(m, func() {})
	require.NoError(t, l.Close())
	assert.Equal(t, []string{"<-> tracedLeaf() <> tracex"}, other.Lines())
}
