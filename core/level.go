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
	"fmt"
	"strings"
)

// LogLevel 日志级别，按位组合，一个Logger可以同时开启多个级别
type LogLevel uint16

const (
	// NoneLevel 不输出任何日志
	NoneLevel LogLevel = 0
	// FatalLevel 致命错误
	FatalLevel LogLevel = 1 << (iota - 1)
	// ErrorLevel 业务出现了明显的错误，系统仍可正常运行
	ErrorLevel
	// WarningLevel 存在危险，但不影响系统的正常运行
	WarningLevel
	// MessageLevel 面向使用者的普通消息
	MessageLevel
	// InfoLevel 默认开启的信息级别
	InfoLevel
	// DebugLevel 调试级别，调用链追踪的日志都输出在这个级别
	DebugLevel

	// AllLevel 开启全部级别
	AllLevel = FatalLevel | ErrorLevel | WarningLevel | MessageLevel | InfoLevel | DebugLevel
	// DefaultLevel 除Debug以外的全部级别
	DefaultLevel = AllLevel &^ DebugLevel
)

var levelNames = [...]struct {
	level LogLevel
	name  string
}{
	{FatalLevel, "fatal"},
	{ErrorLevel, "error"},
	{WarningLevel, "warning"},
	{MessageLevel, "message"},
	{InfoLevel, "info"},
	{DebugLevel, "debug"},
}

// String 返回日志级别的小写格式，组合级别以"|"连接
func (l LogLevel) String() string {
	switch {
	case l == NoneLevel:
		return "none"
	case l == AllLevel:
		return "all"
	case !l.Valid():
		return fmt.Sprintf("unknown level(%d)", uint16(l))
	}

	names := make([]string, 0, len(levelNames))
	for _, ln := range levelNames {
		if l&ln.level != 0 {
			names = append(names, ln.name)
		}
	}

	return strings.Join(names, "|")
}

// UpperString 返回日志级别大写格式的字符串内容
func (l LogLevel) UpperString() string {
	return strings.ToUpper(l.String())
}

// Valid 校验是否只包含已定义的级别位
func (l LogLevel) Valid() bool {
	return l&^AllLevel == 0
}

// Enabled 当前级别集合中是否包含level中的任意一个级别
func (l LogLevel) Enabled(level LogLevel) bool {
	return l&level != 0
}

// ParseLevel 解析级别名称，支持"info|debug"这样的组合写法
func ParseLevel(s string) (LogLevel, error) {
	var level LogLevel
	for _, part := range strings.Split(s, "|") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "", "none":
			continue
		case "all":
			level |= AllLevel
			continue
		}

		found := false
		for _, ln := range levelNames {
			if ln.name == part {
				level |= ln.level
				found = true
				break
			}
		}
		if !found {
			return NoneLevel, fmt.Errorf("unknown level name %q", part)
		}
	}

	return level, nil
}
