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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		level     LogLevel
		wantValid bool
		wantStr   string
	}{
		{
			name:      "合法level",
			level:     DebugLevel,
			wantValid: true,
			wantStr:   "debug",
		},
		{
			name:      "组合level",
			level:     InfoLevel | ErrorLevel,
			wantValid: true,
			wantStr:   "error|info",
		},
		{
			name:      "全部level",
			level:     AllLevel,
			wantValid: true,
			wantStr:   "all",
		},
		{
			name:      "不合法level_1",
			level:     100,
			wantValid: false,
			wantStr:   "unknown level(100)",
		},
		{
			name:      "不合法level_2",
			level:     AllLevel + 1,
			wantValid: false,
			wantStr:   "unknown level(64)",
		},
	}

	for _, tcs := range testCases {
		tc := tcs
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantValid, tc.level.Valid())
			assert.Equal(t, tc.wantStr, tc.level.String())
		})
	}
}

func TestEnabled(t *testing.T) {
	t.Parallel()
	// 当前的日志级别
	level := DefaultLevel
	testCases := []struct {
		name    string
		input   LogLevel
		wantRes bool
	}{
		{
			name:    "不允许输出_DebugLevel",
			input:   DebugLevel,
			wantRes: false,
		},
		{
			name:    "允许输出_InfoLevel",
			input:   InfoLevel,
			wantRes: true,
		},
		{
			name:    "允许输出_FatalLevel",
			input:   FatalLevel,
			wantRes: true,
		},
		{
			name:    "不允许输出_NoneLevel",
			input:   NoneLevel,
			wantRes: false,
		},
	}

	for _, tcs := range testCases {
		tc := tcs
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantRes, level.Enabled(tc.input))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("info | Debug")
	assert.NoError(t, err)
	assert.Equal(t, InfoLevel|DebugLevel, level)

	level, err = ParseLevel("all")
	assert.NoError(t, err)
	assert.Equal(t, AllLevel, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
