/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext identifies the conversation a dispatch cycle belongs to.
type ExecutionContext struct {
	SessionID  string `json:"session_id,omitempty"`
	Frontend   string `json:"frontend,omitempty"`   // "terminal" or "web"
	Repository string `json:"repository,omitempty"` // owner/name the GitHub tools target
	TurnNumber int    `json:"turn_number,omitempty"`
}

// SpanAttributes returns every populated field, for traces.
func (e ExecutionContext) SpanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if e.SessionID != "" {
		attrs = append(attrs, attribute.String("session_id", e.SessionID))
	}
	if e.Frontend != "" {
		attrs = append(attrs, attribute.String("frontend", e.Frontend))
	}
	if e.Repository != "" {
		attrs = append(attrs, attribute.String("repository", e.Repository))
	}
	if e.TurnNumber > 0 {
		attrs = append(attrs, attribute.Int("turn", e.TurnNumber))
	}
	return attrs
}

// EnrichAttributes appends the bounded fields to baseAttrs for metrics.
// The session id is left out: every session would create a new series.
func (e ExecutionContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+2)
	copy(attrs, baseAttrs)
	if e.Frontend != "" {
		attrs = append(attrs, attribute.String("frontend", e.Frontend))
	}
	if e.Repository != "" {
		attrs = append(attrs, attribute.String("repository", e.Repository))
	}
	return attrs
}

type contextKey string

const executionContextKey contextKey = "execution_context"

// WithExecutionContext adds execution context to the Go context
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if execCtx, ok := ctx.Value(executionContextKey).(ExecutionContext); ok {
		return execCtx
	}
	return ExecutionContext{}
}
