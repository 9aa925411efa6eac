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
	"fmt"

	"github.com/TimeWtr/tracex/errorx"
)

const (
	// MinIndent 缩进配置允许的最小值
	MinIndent = 0
	// MaxIndent 缩进配置允许的最大值
	MaxIndent = 32
)

// Config 调用链追踪和手动日志的全部格式化配置，在一次日志操作期间只读，
// 两次操作之间可以通过Tracer.SetConfig整体替换
type Config struct {
	// 是否创建日志，关闭后手动日志和调用链日志都不输出
	CreateLogs bool `koanf:"create_logs" json:"create_logs" yaml:"create_logs"`
	// 是否创建调用链日志，调用链日志固定输出在Debug级别
	CreateCallTrace bool `koanf:"create_call_trace" json:"create_call_trace" yaml:"create_call_trace"`

	Format      FormatConfig      `koanf:"format" json:"format" yaml:"format"`
	Indent      IndentConfig      `koanf:"indent" json:"indent" yaml:"indent"`
	Symbols     SymbolConfig      `koanf:"symbols" json:"symbols" yaml:"symbols"`
	Information InformationConfig `koanf:"information" json:"information" yaml:"information"`
}

// FormatConfig 调用链的折叠与展示开关
type FormatConfig struct {
	// 开启标识调用链最底层的Runner
	EnableRunner bool `koanf:"enable_runner" json:"enable_runner" yaml:"enable_runner"`
	// 开启进入、退出、异常的标记
	EnableMarkers bool `koanf:"enable_markers" json:"enable_markers" yaml:"enable_markers"`
	// 没有子调用的调用合并为一行
	CombineChildlessCalls bool `koanf:"combine_childless_calls" json:"combine_childless_calls" yaml:"combine_childless_calls"`
	// 连续重复的无子调用合并为一行并带上次数
	CombineRepeatCalls bool `koanf:"combine_repeat_calls" json:"combine_repeat_calls" yaml:"combine_repeat_calls"`
	// 手动日志显示来源，Logger没有开启Debug时生效
	ShowSourceOfManualLogs bool `koanf:"show_source_of_manual_logs" json:"show_source_of_manual_logs" yaml:"show_source_of_manual_logs"`
	// 手动日志在调用链中显示来源，Logger开启Debug时生效
	ShowSourceOfManualLogsInCallTrace bool `koanf:"show_source_of_manual_logs_in_call_trace" json:"show_source_of_manual_logs_in_call_trace" yaml:"show_source_of_manual_logs_in_call_trace"`
}

// IndentConfig 缩进配置
type IndentConfig struct {
	// 调用链日志跟随调用层级缩进
	IndentCallTrace bool `koanf:"indent_call_trace" json:"indent_call_trace" yaml:"indent_call_trace"`
	// 异常日志跟随调用层级缩进
	IndentExceptions bool `koanf:"indent_exceptions" json:"indent_exceptions" yaml:"indent_exceptions"`
	// 手动日志跟随调用层级缩进
	IndentManualLogs bool `koanf:"indent_manual_logs" json:"indent_manual_logs" yaml:"indent_manual_logs"`
	// Runner前面的空格数量
	RunnerIndent int `koanf:"runner_indent" json:"runner_indent" yaml:"runner_indent"`
	// 调用链最底层的缩进
	BaseIndent int `koanf:"base_indent" json:"base_indent" yaml:"base_indent"`
	// 每一层调用增加的缩进
	IndentIncrement int `koanf:"indent_increment" json:"indent_increment" yaml:"indent_increment"`
}

// SymbolConfig 标记符号
type SymbolConfig struct {
	Runner             string `koanf:"runner" json:"runner" yaml:"runner"`
	EnterMarker        string `koanf:"enter_marker" json:"enter_marker" yaml:"enter_marker"`
	ExitMarker         string `koanf:"exit_marker" json:"exit_marker" yaml:"exit_marker"`
	CombinedMarker     string `koanf:"combined_marker" json:"combined_marker" yaml:"combined_marker"`
	ExceptionMarker    string `koanf:"exception_marker" json:"exception_marker" yaml:"exception_marker"`
	CallSeparator      string `koanf:"call_separator" json:"call_separator" yaml:"call_separator"`
	ExceptionSeparator string `koanf:"exception_separator" json:"exception_separator" yaml:"exception_separator"`
}

// InformationConfig 带占位符的信息模板
type InformationConfig struct {
	CallSource      string `koanf:"call_source" json:"call_source" yaml:"call_source"`
	CallInfo        string `koanf:"call_info" json:"call_info" yaml:"call_info"`
	ExceptionSource string `koanf:"exception_source" json:"exception_source" yaml:"exception_source"`
	ExceptionInfo   string `koanf:"exception_info" json:"exception_info" yaml:"exception_info"`
	ManualLogSource string `koanf:"manual_log_source" json:"manual_log_source" yaml:"manual_log_source"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		CreateLogs:      true,
		CreateCallTrace: true,
		Format: FormatConfig{
			EnableRunner:          true,
			EnableMarkers:         true,
			CombineChildlessCalls: true,
			CombineRepeatCalls:    true,
		},
		Indent: IndentConfig{
			IndentCallTrace:  true,
			IndentExceptions: true,
			IndentManualLogs: true,
			RunnerIndent:     0,
			BaseIndent:       1,
			IndentIncrement:  2,
		},
		Symbols: SymbolConfig{
			Runner:             "|",
			EnterMarker:        "->",
			ExitMarker:         "<-",
			CombinedMarker:     "<->",
			ExceptionMarker:    "!!",
			CallSeparator:      "<>",
			ExceptionSeparator: "<!>",
		},
		Information: InformationConfig{
			CallSource:      "{CallerName}()",
			CallInfo:        "{CallerReflectedType}",
			ExceptionSource: "{CallerName}()",
			ExceptionInfo:   "{ExceptionType}: {ExceptionMessage}",
			ManualLogSource: "[{CallerReflectedType}::{CallerName}]:",
		},
	}
}

// Validate 校验配置，超出范围的值直接返回错误，不做截断
func (c *Config) Validate() error {
	if c == nil {
		return errorx.ErrNilConfig
	}

	checks := []struct {
		name  string
		value int
	}{
		{"indent.runner_indent", c.Indent.RunnerIndent},
		{"indent.base_indent", c.Indent.BaseIndent},
		{"indent.indent_increment", c.Indent.IndentIncrement},
	}
	for _, ck := range checks {
		if ck.value < MinIndent || ck.value > MaxIndent {
			return fmt.Errorf("%w: %s must be in [%d, %d], got %d",
				errorx.ErrInvalidConfig, ck.name, MinIndent, MaxIndent, ck.value)
		}
	}

	return nil
}

// Clone 返回配置的副本
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// runner 返回Runner符号和Runner前的缩进，未开启时都为空
func (c *Config) runner() (glyph string, indent int) {
	if !c.Format.EnableRunner {
		return "", 0
	}

	return c.Symbols.Runner, c.Indent.RunnerIndent
}

// indentStep 每一层调用的缩进增量，未开启调用链缩进时为0
func (c *Config) indentStep() int {
	if !c.Indent.IndentCallTrace {
		return 0
	}

	return c.Indent.IndentIncrement
}
