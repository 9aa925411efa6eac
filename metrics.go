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
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/TimeWtr/tracex"

	metricTraceLines = "tracex.trace.lines"
	metricManualLogs = "tracex.manual.logs"
)

// traceMetrics 输出的调用链日志行数和手动日志条数
type traceMetrics struct {
	lines  metric.Int64Counter
	manual metric.Int64Counter
}

// newTraceMetrics provider为nil时使用全局的MeterProvider，未设置全局provider时为noop
func newTraceMetrics(provider metric.MeterProvider) (*traceMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(instrumentationName)
	lines, err := meter.Int64Counter(metricTraceLines,
		metric.WithDescription("Number of call trace lines written"),
		metric.WithUnit("{line}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", metricTraceLines, err)
	}

	manual, err := meter.Int64Counter(metricManualLogs,
		metric.WithDescription("Number of manual log messages written"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", metricManualLogs, err)
	}

	return &traceMetrics{lines: lines, manual: manual}, nil
}

func (m *traceMetrics) traceLine(kind Kind) {
	m.lines.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *traceMetrics) manualLog(level LogLevel) {
	m.manual.Add(context.Background(), 1, metric.WithAttributes(attribute.String("level", level.String())))
}
