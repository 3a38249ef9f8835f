/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"

	"chainguard.dev/chatops/agents/agenttrace"
	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher enriches metric attributes with additional context.
// It receives the base attributes (model, tool) and returns the full set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// ExecutionContextEnricher adds the bounded fields of the conversation's
// agenttrace.ExecutionContext (frontend, repository).
func ExecutionContextEnricher(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	return agenttrace.GetExecutionContext(ctx).EnrichAttributes(baseAttrs)
}
