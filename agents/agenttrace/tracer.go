/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Tracer creates traces and receives them once complete.
type Tracer[T any] interface {
	NewTrace(ctx context.Context, prompt string) *Trace[T]
	RecordTrace(trace *Trace[T])
}

type tracerKey[T any] struct{}

// WithTracer returns a new context carrying tracer.
func WithTracer[T any](ctx context.Context, tracer Tracer[T]) context.Context {
	return context.WithValue(ctx, tracerKey[T]{}, tracer)
}

// TracerFromContext returns the tracer in ctx, or the default clog tracer.
func TracerFromContext[T any](ctx context.Context) Tracer[T] {
	if tracer, ok := ctx.Value(tracerKey[T]{}).(Tracer[T]); ok {
		return tracer
	}
	return NewDefaultTracer[T](ctx)
}

// StartTrace starts a new trace using the tracer from the context
func StartTrace[T any](ctx context.Context, prompt string) *Trace[T] {
	return TracerFromContext[T](ctx).NewTrace(ctx, prompt)
}

// TraceCallback receives completed traces.
type TraceCallback[T any] func(*Trace[T])

type byCodeTracer[T any] struct {
	callbacks []TraceCallback[T]
}

// ByCode returns a Tracer that hands every completed trace to callbacks,
// running them concurrently and waiting for all of them.
func ByCode[T any](callbacks ...TraceCallback[T]) Tracer[T] {
	return &byCodeTracer[T]{callbacks: callbacks}
}

func (t *byCodeTracer[T]) NewTrace(ctx context.Context, prompt string) *Trace[T] {
	return newTraceWithTracer[T](ctx, t, prompt)
}

func (t *byCodeTracer[T]) RecordTrace(trace *Trace[T]) {
	var g errgroup.Group
	for _, cb := range t.callbacks {
		if cb == nil {
			continue
		}
		g.Go(func() error {
			cb(trace)
			return nil
		})
	}
	_ = g.Wait()
}

// NewDefaultTracer creates a tracer that logs each completed trace to clog.
func NewDefaultTracer[T any](ctx context.Context) Tracer[T] {
	logger := clog.FromContext(ctx)
	return ByCode[T](func(trace *Trace[T]) {
		logger.With(
			"trace_id", trace.ID,
			"duration_ms", trace.Duration().Milliseconds(),
			"tool_calls", len(trace.ToolCalls),
		).Debug("Dispatch trace completed", "trace", trace.String())
	})
}
