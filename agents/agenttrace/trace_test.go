/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
)

func randomString() string {
	return fmt.Sprintf("test-%d", rand.Int63())
}

type mockTracer[T any] struct {
	mu     sync.Mutex
	traces []*Trace[T]
}

func (m *mockTracer[T]) NewTrace(ctx context.Context, prompt string) *Trace[T] {
	return newTraceWithTracer[T](ctx, m, prompt)
}

func (m *mockTracer[T]) RecordTrace(trace *Trace[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, trace)
}

func TestTracerFromContext(t *testing.T) {
	ctx := context.Background()
	tracer := &mockTracer[string]{}

	if got := TracerFromContext[string](WithTracer[string](ctx, tracer)); got != tracer {
		t.Errorf("tracer: got = %v, wanted = %v", got, tracer)
	}
	if got := TracerFromContext[string](ctx); got == nil {
		t.Error("tracer from empty context: got = nil, wanted = default tracer")
	}
	// Different type parameters do not collide.
	if got := TracerFromContext[int](WithTracer[string](ctx, tracer)); got == nil {
		t.Error("int tracer: got = nil, wanted = default tracer")
	}
}

func TestTraceRecordsToolCallsOnCompletion(t *testing.T) {
	tracer := &mockTracer[string]{}
	ctx := WithTracer[string](context.Background(), tracer)
	ctx = WithExecutionContext(ctx, ExecutionContext{SessionID: "s1", Frontend: "terminal", TurnNumber: 2})

	prompt := randomString()
	trace := StartTrace[string](ctx, prompt)
	if trace.InputPrompt != prompt {
		t.Errorf("prompt: got = %q, wanted = %q", trace.InputPrompt, prompt)
	}
	if trace.ExecContext.SessionID != "s1" {
		t.Errorf("session: got = %q, wanted = %q", trace.ExecContext.SessionID, "s1")
	}

	tc := trace.StartToolCall("call_1", "create_github_issue", map[string]any{"title": "x"})
	tc.Complete(map[string]any{"id": "1"}, nil)
	trace.BadToolCall("call_2", "delete_repo", nil, errors.New("unknown tool"))

	if len(tracer.traces) != 0 {
		t.Errorf("traces before completion: got = %d, wanted = 0", len(tracer.traces))
	}
	trace.Complete("done", nil)

	if len(tracer.traces) != 1 || tracer.traces[0] != trace {
		t.Fatalf("recorded traces: got = %v, wanted = [%v]", tracer.traces, trace)
	}
	var names []string
	for _, c := range trace.ToolCalls {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"create_github_issue", "delete_repo"}, names); diff != "" {
		t.Errorf("tool calls (-want +got):\n%s", diff)
	}
	if trace.ToolCalls[1].Error == nil {
		t.Error("bad tool call error: got = nil, wanted error")
	}
	if trace.Duration() < 0 {
		t.Errorf("duration: got = %v, wanted >= 0", trace.Duration())
	}
}

func TestByCodeRunsCallbacksConcurrently(t *testing.T) {
	started := make(chan struct{}, 3)
	proceed := make(chan struct{})
	cb := func(*Trace[string]) {
		started <- struct{}{}
		<-proceed
	}
	tracer := ByCode[string](cb, nil, cb, cb)
	trace := tracer.NewTrace(context.Background(), randomString())

	done := make(chan struct{})
	go func() {
		trace.Complete(randomString(), nil)
		close(done)
	}()

	timeout := time.After(time.Second)
	for range 3 {
		select {
		case <-started:
		case <-timeout:
			t.Fatal("callbacks did not start concurrently")
		}
	}
	close(proceed)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Complete did not return")
	}
}

func TestTraceString(t *testing.T) {
	trace := ByCode[string]().NewTrace(context.Background(), "make a task")
	trace.StartToolCall("c1", "create_asana_task", map[string]any{"task_name": "Ship it"}).
		Complete(strings.Repeat("x", 300), nil)
	trace.SetMetadata("iterations", 2)
	trace.Complete("", errors.New("tool-call limit exceeded"))

	got := trace.String()
	for _, want := range []string{
		`Prompt: "make a task"`,
		"Tool Calls (1):",
		"create_asana_task (ID: c1)",
		"task_name: Ship it",
		"...",
		"Error: tool-call limit exceeded",
		"iterations: 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q:\n%s", want, got)
		}
	}
}

func TestEnrichAttributes(t *testing.T) {
	e := ExecutionContext{SessionID: "abc", Frontend: "web", Repository: "octo/repo", TurnNumber: 4}
	got := e.EnrichAttributes([]attribute.KeyValue{attribute.String("model", "gpt-4o-mini")})
	want := []attribute.KeyValue{
		attribute.String("model", "gpt-4o-mini"),
		attribute.String("frontend", "web"),
		attribute.String("repository", "octo/repo"),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b attribute.KeyValue) bool { return a == b })); diff != "" {
		t.Errorf("EnrichAttributes (-want +got):\n%s", diff)
	}
	if n := len(e.SpanAttributes()); n != 4 {
		t.Errorf("span attributes: got = %d, wanted = 4", n)
	}
}
