/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package conversation holds the ordered, append-only turn history of one
// chat session.
package conversation

import (
	"slices"
	"sync"

	"chainguard.dev/chatops/agents/toolcall"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry of the history. Assistant turns may carry the tool
// calls the model requested; tool turns answer exactly one of those calls
// and name it in ToolCallID.
type Turn struct {
	Role       Role                `json:"role"`
	Content    string              `json:"content"`
	ToolCalls  []toolcall.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string              `json:"tool_call_id,omitempty"`
	ToolName   string              `json:"tool_name,omitempty"`
}

// User returns a user turn.
func User(text string) Turn { return Turn{Role: RoleUser, Content: text} }

// Assistant returns an assistant turn, optionally requesting tool calls.
func Assistant(text string, calls ...toolcall.ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResult returns the tool turn answering call.
func ToolResult(call toolcall.ToolCall, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: call.ID, ToolName: call.Name}
}

// Conversation is safe for concurrent use. Turns are never removed or
// rewritten.
type Conversation struct {
	mu     sync.RWMutex
	system string
	turns  []Turn
}

// New returns an empty conversation with the given system prompt.
func New(system string) *Conversation {
	return &Conversation{system: system}
}

// System returns the system prompt.
func (c *Conversation) System() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.system
}

// Append adds turns to the end of the history.
func (c *Conversation) Append(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
}

// Turns returns a copy of the history.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.turns)
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// PendingToolCalls returns the calls of the most recent assistant turn that
// no later tool turn answers yet. The model must not be invoked while any
// are pending.
func (c *Conversation) PendingToolCalls() []toolcall.ToolCall {
	c.mu.RLock()
	defer c.mu.RUnlock()

	last := -1
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == RoleAssistant {
			last = i
			break
		}
	}
	if last < 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, t := range c.turns[last+1:] {
		if t.Role == RoleTool {
			answered[t.ToolCallID] = true
		}
	}
	var pending []toolcall.ToolCall
	for _, call := range c.turns[last].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}
