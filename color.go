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

import "github.com/fatih/color"

// ColorPlugin 日志级别标签插件
type ColorPlugin interface {
	// Format 返回日志行前缀，比如"[DEBUG] "
	Format(level LogLevel, tag string) string
}

type PlainPlugin struct{}

func (p PlainPlugin) Format(_ LogLevel, tag string) string {
	return "[" + tag + "] "
}

// ANSIColorPlugin 按级别给标签上色
type ANSIColorPlugin struct {
	colors map[LogLevel]*color.Color
}

// NewColorPlugin enabled为false时返回不带颜色的插件
func NewColorPlugin(enabled bool) ColorPlugin {
	if !enabled {
		return PlainPlugin{}
	}

	p := &ANSIColorPlugin{
		colors: map[LogLevel]*color.Color{
			FatalLevel:   color.New(color.FgHiRed, color.Bold),
			ErrorLevel:   color.New(color.FgRed, color.Bold),
			WarningLevel: color.New(color.FgYellow, color.Bold),
			MessageLevel: color.New(color.FgWhite, color.Bold),
			InfoLevel:    color.New(color.FgGreen, color.Bold),
			DebugLevel:   color.New(color.FgCyan, color.Bold),
		},
	}
	// 输出目标可能是文件或管道，由调用方决定是否上色
	for _, c := range p.colors {
		c.EnableColor()
	}

	return p
}

func (p *ANSIColorPlugin) Format(level LogLevel, tag string) string {
	if c, ok := p.colors[level]; ok {
		return c.Sprint("["+tag+"]") + " "
	}

	return PlainPlugin{}.Format(level, tag)
}
