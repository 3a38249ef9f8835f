/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package chatmodeltest provides a scripted chatmodel.Model for tests.
package chatmodeltest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
)

// Step is one scripted reply.
type Step struct {
	Response chatmodel.Response
	Err      error
	// Delay holds the reply back; the call fails if ctx ends first.
	Delay time.Duration
	// Chunks are streamed when the request has OnChunk set. Defaults to
	// the whole response text as one chunk.
	Chunks []string
}

// Text returns a step replying with text only.
func Text(text string, chunks ...string) Step {
	return Step{Response: chatmodel.Response{Text: text}, Chunks: chunks}
}

// ToolCalls returns a step requesting the given tool calls.
func ToolCalls(calls ...toolcall.ToolCall) Step {
	return Step{Response: chatmodel.Response{ToolCalls: calls}}
}

// Fail returns a step whose call fails with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// Model replays steps in order and records every request it receives.
type Model struct {
	name string

	mu       sync.Mutex
	steps    []Step
	requests []chatmodel.Request
}

var _ chatmodel.Model = (*Model)(nil)

// New returns a model named "scripted" that replays steps.
func New(steps ...Step) *Model {
	return &Model{name: "scripted", steps: steps}
}

// Name implements chatmodel.Model.
func (m *Model) Name() string { return m.name }

// Generate implements chatmodel.Model.
func (m *Model) Generate(ctx context.Context, req chatmodel.Request) (*chatmodel.Response, error) {
	m.mu.Lock()
	req.Turns = slices.Clone(req.Turns)
	m.requests = append(m.requests, req)
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("chatmodeltest: no scripted reply for call %d", len(m.requests))
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if step.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(step.Delay):
		}
	}
	if step.Err != nil {
		return nil, step.Err
	}
	if req.OnChunk != nil {
		chunks := step.Chunks
		if len(chunks) == 0 && step.Response.Text != "" {
			chunks = []string{step.Response.Text}
		}
		for _, c := range chunks {
			req.OnChunk(c)
		}
	}
	resp := step.Response
	return &resp, nil
}

// Requests returns every request received so far.
func (m *Model) Requests() []chatmodel.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Calls returns the number of Generate calls.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Remaining returns the number of unused steps.
func (m *Model) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// LastTurns returns the turns of the most recent request.
func (m *Model) LastTurns() []conversation.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1].Turns
}
