/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/chatmodel/chatmodeltest"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/executor"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/session"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, model chatmodel.Model, opts ...executor.Option) *executor.Executor {
	t.Helper()
	reg, err := toolcall.NewRegistry(toolcall.Tool{
		Def: toolcall.Definition{Name: "ping"},
		Handler: func(context.Context, toolcall.ToolCall, *agenttrace.Trace[string]) result.Result {
			return result.Ok("pong")
		},
	})
	require.NoError(t, err)
	exec, err := executor.New(model, reg, opts...)
	require.NoError(t, err)
	return exec
}

func TestSendAppendsUserAndAssistantTurns(t *testing.T) {
	model := chatmodeltest.New(
		chatmodeltest.ToolCalls(toolcall.ToolCall{ID: "p1", Name: "ping"}),
		chatmodeltest.Text("Pinged."),
	)
	s := session.New(newExecutor(t, model), conversation.New("sys"), "terminal")

	got, err := s.Send(context.Background(), "ping it", nil)
	require.NoError(t, err)
	if got != "Pinged." {
		t.Errorf("Send(): got = %q, wanted = %q", got, "Pinged.")
	}

	var roles []conversation.Role
	for _, turn := range s.Turns() {
		roles = append(roles, turn.Role)
	}
	want := []conversation.Role{
		conversation.RoleUser, conversation.RoleAssistant, conversation.RoleTool, conversation.RoleAssistant,
	}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Errorf("roles (-want +got):\n%s", diff)
	}
}

func TestSendRendersFailures(t *testing.T) {
	tests := []struct {
		name    string
		steps   []chatmodeltest.Step
		opts    []executor.Option
		want    string
		wantErr error
	}{{
		name:    "model failure",
		steps:   []chatmodeltest.Step{chatmodeltest.Fail(errors.New("invalid api key"))},
		want:    "error: calling model scripted: invalid api key",
		wantErr: nil,
	}, {
		name: "limit exceeded",
		steps: []chatmodeltest.Step{
			chatmodeltest.ToolCalls(toolcall.ToolCall{ID: "p1", Name: "ping"}),
		},
		opts:    []executor.Option{executor.WithMaxIterations(1)},
		want:    session.LimitExceededText,
		wantErr: executor.ErrToolCallLimit,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.New(newExecutor(t, chatmodeltest.New(tt.steps...), tt.opts...), conversation.New(""), "web")

			got, err := s.Send(context.Background(), "go", nil)
			if err == nil {
				t.Fatal("Send(): got = nil error, wanted failure")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Send() error: got = %v, wanted %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Send(): got = %q, wanted = %q", got, tt.want)
			}

			turns := s.Turns()
			last := turns[len(turns)-1]
			if last.Role != conversation.RoleAssistant || last.Content != tt.want {
				t.Errorf("last turn: got = %+v", last)
			}
		})
	}
}

func TestSendStreams(t *testing.T) {
	s := session.New(newExecutor(t, chatmodeltest.New(chatmodeltest.Text("Hi there", "Hi ", "there"))), conversation.New(""), "terminal")

	var chunks []string
	got, err := s.Send(context.Background(), "hello", func(c string) { chunks = append(chunks, c) })
	require.NoError(t, err)
	if got != strings.Join(chunks, "") {
		t.Errorf("streamed %q, returned %q", strings.Join(chunks, ""), got)
	}
}

// blockingRunner records how many runs overlap.
type blockingRunner struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (b *blockingRunner) Run(_ context.Context, _ *conversation.Conversation, _ chatmodel.StreamFunc) (executor.Reply, error) {
	b.mu.Lock()
	b.active++
	b.maxSeen = max(b.maxSeen, b.active)
	b.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return executor.Reply{Text: "ok", Iterations: 1}, nil
}

func TestSendSerializes(t *testing.T) {
	runner := &blockingRunner{}
	s := session.New(runner, conversation.New(""), "web")

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			if _, err := s.Send(context.Background(), "hi", nil); err != nil {
				t.Errorf("Send() = %v", err)
			}
		})
	}
	wg.Wait()

	if runner.maxSeen != 1 {
		t.Errorf("overlapping runs: got = %d, wanted = 1", runner.maxSeen)
	}
	if got := len(s.Turns()); got != 10 {
		t.Errorf("turns: got = %d, wanted = 10", got)
	}
}

func TestNewConversation(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	conv, err := session.NewConversation(session.SystemPrompt{
		Now:          now,
		Capabilities: []string{"create GitHub issues", "create Asana tasks"},
	})
	require.NoError(t, err)
	sys := conv.System()
	for _, want := range []string{"Monday, 2026-03-09", "- create GitHub issues", "- create Asana tasks"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q:\n%s", want, sys)
		}
	}

	bare, err := session.NewConversation(session.SystemPrompt{Now: now})
	require.NoError(t, err)
	if !strings.Contains(bare.System(), "You have no tools") {
		t.Errorf("system prompt without tools:\n%s", bare.System())
	}
}
