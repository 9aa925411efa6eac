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

import "github.com/TimeWtr/tracex/core"

type LogLevel = core.LogLevel

const (
	NoneLevel    = core.NoneLevel
	FatalLevel   = core.FatalLevel
	ErrorLevel   = core.ErrorLevel
	WarningLevel = core.WarningLevel
	MessageLevel = core.MessageLevel
	InfoLevel    = core.InfoLevel
	DebugLevel   = core.DebugLevel
	AllLevel     = core.AllLevel
	DefaultLevel = core.DefaultLevel
)

// ParseLevel 解析级别名称，比如"info|debug"
func ParseLevel(s string) (LogLevel, error) {
	return core.ParseLevel(s)
}
