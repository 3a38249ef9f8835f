/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package conversation_test

import (
	"sync"
	"testing"

	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

func TestAppendOnly(t *testing.T) {
	c := conversation.New("You are a helpful assistant.")
	c.Append(conversation.User("hi"))

	snapshot := c.Turns()
	snapshot[0].Content = "mutated"

	if got := c.Turns()[0].Content; got != "hi" {
		t.Errorf("stored turn: got = %q, wanted = %q", got, "hi")
	}
	if got := c.System(); got != "You are a helpful assistant." {
		t.Errorf("System(): got = %q", got)
	}
}

func TestPendingToolCalls(t *testing.T) {
	a := toolcall.ToolCall{ID: "a", Name: "create_github_issue"}
	b := toolcall.ToolCall{ID: "b", Name: "create_asana_task"}

	c := conversation.New("")
	if got := c.PendingToolCalls(); got != nil {
		t.Errorf("empty conversation: got = %v, wanted = nil", got)
	}

	c.Append(conversation.User("do both"), conversation.Assistant("", a, b))
	if diff := cmp.Diff([]toolcall.ToolCall{a, b}, c.PendingToolCalls()); diff != "" {
		t.Errorf("pending after request (-want +got):\n%s", diff)
	}

	c.Append(conversation.ToolResult(a, `{"status":"ok"}`))
	if diff := cmp.Diff([]toolcall.ToolCall{b}, c.PendingToolCalls()); diff != "" {
		t.Errorf("pending after one answer (-want +got):\n%s", diff)
	}

	c.Append(conversation.ToolResult(b, `{"status":"ok"}`))
	if got := c.PendingToolCalls(); len(got) != 0 {
		t.Errorf("pending after both answers: got = %v, wanted none", got)
	}

	var refs [][2]string
	for _, turn := range c.Turns()[2:] {
		refs = append(refs, [2]string{turn.ToolCallID, turn.ToolName})
	}
	want := [][2]string{{"a", "create_github_issue"}, {"b", "create_asana_task"}}
	if diff := cmp.Diff(want, refs); diff != "" {
		t.Errorf("tool turn back-references (-want +got):\n%s", diff)
	}
}

func TestConcurrentAppend(t *testing.T) {
	c := conversation.New("")
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			c.Append(conversation.User("x"))
			_ = c.Turns()
		})
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Errorf("Len(): got = %d, wanted = 50", c.Len())
	}
}
