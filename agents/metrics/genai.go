/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI provides OpenTelemetry metrics for chat model calls and the tools
// they dispatch. Counters that fail to register degrade to no-ops.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolFailures     metric.Int64Counter
	iterations       metric.Int64Histogram
	attrEnricher     AttributeEnricher
}

// NewGenAI creates the instruments on the named meter. The model name is a
// dimension on every measurement, so one meter serves all providers.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metrics will be disabled", "error", err, "meter", meterName, "counter", name)
			return noop.Int64Counter{}
		}
		return c
	}

	iterations, err := meter.Int64Histogram("genai.dispatch.iterations",
		metric.WithDescription("The number of model calls made to answer one user turn"),
		metric.WithUnit("{calls}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 6, 8, 12, 16))
	if err != nil {
		slog.Warn("Failed to create iterations histogram, metrics will be disabled", "error", err, "meter", meterName)
		iterations = noop.Int64Histogram{}
	}

	return &GenAI{
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter("genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
		toolFailures:     counter("genai.tool.failures", "The number of tool calls that did not succeed, by failure kind", "{calls}"),
		iterations:       iterations,
	}
}

// SetAttributeEnricher sets the enricher applied before every measurement.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attrs(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records prompt and completion token usage.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := m.attrs(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordToolCall records a tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, attrs ...attribute.KeyValue) {
	m.toolCalls.Add(ctx, 1, m.attrs(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
	}, attrs))
}

// RecordToolFailure records a tool invocation that ended in a failure kind.
func (m *GenAI) RecordToolFailure(ctx context.Context, model, toolName, kind string, attrs ...attribute.KeyValue) {
	m.toolFailures.Add(ctx, 1, m.attrs(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
		attribute.String("kind", kind),
	}, attrs))
}

// RecordIterations records how many model calls one dispatch cycle took.
func (m *GenAI) RecordIterations(ctx context.Context, model string, n int, attrs ...attribute.KeyValue) {
	m.iterations.Record(ctx, int64(n), m.attrs(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs))
}
