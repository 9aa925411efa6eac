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
	"github.com/TimeWtr/tracex/core"
	"go.opentelemetry.io/otel/metric"
)

type tracerOptions struct {
	cfg       *Config
	registry  *Registry
	provider  metric.MeterProvider
	cacheSize int
}

type Options func(*tracerOptions)

// WithConfig 设置追踪配置，如果不设置，使用DefaultConfig
func WithConfig(cfg *Config) Options {
	return func(o *tracerOptions) {
		o.cfg = cfg
	}
}

// WithRegistry 使用已有的注册表，多个Tracer可以共享同一个注册表
func WithRegistry(r *Registry) Options {
	return func(o *tracerOptions) {
		o.registry = r
	}
}

// WithMeterProvider 设置指标的MeterProvider，默认使用otel全局的provider
func WithMeterProvider(mp metric.MeterProvider) Options {
	return func(o *tracerOptions) {
		o.provider = mp
	}
}

// WithTemplateCacheSize 设置模板解析缓存的容量，默认为64
func WithTemplateCacheSize(size int) Options {
	return func(o *tracerOptions) {
		o.cacheSize = size
	}
}

func defaultTracerOptions() *tracerOptions {
	return &tracerOptions{
		cacheSize: core.DefaultTemplateCacheSize,
	}
}
