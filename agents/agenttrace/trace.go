/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/chatops/agents/agenttrace"

// ToolCall is a single tool invocation within a trace.
type ToolCall[T any] struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	trace *Trace[T]
	mu    sync.Mutex
	span  oteltrace.Span
}

// Trace is one dispatch cycle, from the user's text to the final reply.
type Trace[T any] struct {
	ID          string           `json:"id"`
	InputPrompt string           `json:"input_prompt"`
	ExecContext ExecutionContext `json:"exec_context,omitempty"`
	ToolCalls   []*ToolCall[T]   `json:"tool_calls"`
	Result      T                `json:"result"`
	Error       error            `json:"error,omitempty"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Metadata    map[string]any   `json:"metadata,omitempty"`

	tracer Tracer[T]
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

func tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

func newTraceWithTracer[T any](ctx context.Context, t Tracer[T], prompt string) *Trace[T] {
	execCtx := GetExecutionContext(ctx)

	attrs := append([]attribute.KeyValue{attribute.String("agent.prompt", prompt)}, execCtx.SpanAttributes()...)
	ctx, span := tracer().Start(ctx, "agent.execution", oteltrace.WithAttributes(attrs...))

	return &Trace[T]{
		ID:          uuid.NewString(),
		InputPrompt: prompt,
		ExecContext: execCtx,
		ToolCalls:   []*ToolCall[T]{},
		StartTime:   time.Now(),
		Metadata:    make(map[string]any),
		tracer:      t,
		ctx:         ctx,
		span:        span,
	}
}

// StartToolCall opens a tool call span. The call is added to the trace when
// Complete is called on it.
func (t *Trace[T]) StartToolCall(id, name string, params map[string]any) *ToolCall[T] {
	_, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))
	return &ToolCall[T]{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		span:      span,
	}
}

// BadToolCall records a call that never ran: an unknown tool, missing
// arguments, or a call skipped because the iteration limit was reached.
func (t *Trace[T]) BadToolCall(id, name string, params map[string]any, err error) {
	if t == nil {
		return
	}
	_, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
		attribute.String("error", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	now := time.Now()
	tc := &ToolCall[T]{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: now,
		EndTime:   now,
		Error:     err,
		trace:     t,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, tc)
}

// RecordTokenUsage adds model token counts to the execution span.
func (t *Trace[T]) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", inputTokens),
			attribute.Int64("tokens.output", outputTokens),
		)
	}
}

// SetMetadata stores a key on the trace.
func (t *Trace[T]) SetMetadata(key string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata[key] = value
}

// Complete closes the tool call span and appends the call to its trace.
func (tc *ToolCall[T]) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	trace, span := tc.trace, tc.span
	tc.mu.Unlock()

	endSpan(span, err)

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.ToolCalls = append(trace.ToolCalls, tc)
}

// Duration returns the duration of the tool call
func (tc *ToolCall[T]) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return elapsed(tc.StartTime, tc.EndTime)
}

// Complete records the reply and hands the trace to its tracer.
func (t *Trace[T]) Complete(result T, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tr, span := t.tracer, t.span
	t.mu.Unlock()

	endSpan(span, err)
	tr.RecordTrace(t)
}

// Duration returns the total duration of the trace
func (t *Trace[T]) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return elapsed(t.StartTime, t.EndTime)
}

// String renders the trace for logs.
func (t *Trace[T]) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Prompt: %q\n", t.InputPrompt)
	fmt.Fprintf(&sb, "Duration: %v\n", elapsed(t.StartTime, t.EndTime))

	if len(t.ToolCalls) == 0 {
		sb.WriteString("\nNo tool calls\n")
	} else {
		fmt.Fprintf(&sb, "\nTool Calls (%d):\n", len(t.ToolCalls))
	}
	for i, tc := range t.ToolCalls {
		fmt.Fprintf(&sb, "  [%d] %s (ID: %s) %v\n", i+1, tc.Name, tc.ID, elapsed(tc.StartTime, tc.EndTime))
		keys := make([]string, 0, len(tc.Params))
		for k := range tc.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "      %s: %v\n", k, tc.Params[k])
		}
		switch {
		case tc.Error != nil:
			fmt.Fprintf(&sb, "      Error: %v\n", tc.Error)
		case tc.Result != nil:
			fmt.Fprintf(&sb, "      Result: %s\n", truncate(fmt.Sprintf("%v", tc.Result), 200))
		}
	}

	sb.WriteString("\nCompletion:\n")
	if t.Error != nil {
		fmt.Fprintf(&sb, "  Error: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "  Result: %s\n", truncate(fmt.Sprintf("%v", t.Result), 500))
	}

	if len(t.Metadata) > 0 {
		sb.WriteString("\nMetadata:\n")
		keys := make([]string, 0, len(t.Metadata))
		for k := range t.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %v\n", k, t.Metadata[k])
		}
	}
	return sb.String()
}

func endSpan(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func elapsed(start, end time.Time) time.Duration {
	if end.IsZero() {
		return time.Since(start)
	}
	return end.Sub(start)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
