/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"errors"
	"fmt"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// Option is a functional option for configuring the executor
type Option func(*Executor) error

// WithMaxIterations bounds the number of model calls made for one user turn.
func WithMaxIterations(n int) Option {
	return func(e *Executor) error {
		if n <= 0 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		e.maxIterations = n
		return nil
	}
}

// WithCallTimeout bounds every model call and every tool call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Executor) error {
		if d <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", d)
		}
		e.callTimeout = d
		return nil
	}
}

// WithParallelTools runs the tool calls of one model response concurrently,
// at most limit at a time. Tool-result turns are still appended in the
// order the model emitted the calls.
func WithParallelTools(limit int) Option {
	return func(e *Executor) error {
		if limit <= 0 {
			return fmt.Errorf("parallel tool limit must be positive, got %d", limit)
		}
		e.parallelism = limit
		return nil
	}
}

// WithMetrics replaces the GenAI instruments.
func WithMetrics(m *metrics.GenAI) Option {
	return func(e *Executor) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		e.genaiMetrics = m
		return nil
	}
}

// WithTracer sets the tracer used for every dispatch cycle. Without it the
// tracer is taken from the context.
func WithTracer(t agenttrace.Tracer[string]) Option {
	return func(e *Executor) error {
		if t == nil {
			return errors.New("tracer cannot be nil")
		}
		e.tracer = t
		return nil
	}
}

// WithResourceLabels adds fixed attributes to every metric measurement.
func WithResourceLabels(labels map[string]string) Option {
	return func(e *Executor) error {
		for k, v := range labels {
			e.labels = append(e.labels, attribute.String(k, v))
		}
		return nil
	}
}
