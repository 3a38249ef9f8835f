/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"sync/atomic"
	"testing"

	"chainguard.dev/chatops/agents/agenttrace"
	"go.opentelemetry.io/otel/attribute"
)

func TestEnricherAppliedToEveryMeasurement(t *testing.T) {
	m := NewGenAI("chainguard.dev/chatops/test")

	var calls atomic.Int32
	m.SetAttributeEnricher(func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		calls.Add(1)
		return ExecutionContextEnricher(ctx, base)
	})

	ctx := agenttrace.WithExecutionContext(context.Background(), agenttrace.ExecutionContext{Frontend: "web"})
	m.RecordTokens(ctx, "gpt-4o-mini", 10, 5)
	m.RecordToolCall(ctx, "gpt-4o-mini", "create_github_issue")
	m.RecordToolFailure(ctx, "gpt-4o-mini", "create_github_issue", "remote_call_failure")
	m.RecordIterations(ctx, "gpt-4o-mini", 2)

	if got := calls.Load(); got != 4 {
		t.Errorf("enricher calls: got = %d, wanted = 4", got)
	}
}

func TestExecutionContextEnricher(t *testing.T) {
	ctx := agenttrace.WithExecutionContext(context.Background(), agenttrace.ExecutionContext{
		SessionID:  "not-a-label",
		Repository: "octo/repo",
	})
	got := ExecutionContextEnricher(ctx, []attribute.KeyValue{attribute.String("model", "m")})
	if len(got) != 2 {
		t.Fatalf("attributes: got = %v, wanted model and repository", got)
	}
	if got[1].Key != "repository" || got[1].Value.AsString() != "octo/repo" {
		t.Errorf("repository attribute: got = %v", got[1])
	}
}
