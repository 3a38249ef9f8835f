/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/chatops/agents/executor"
	"chainguard.dev/chatops/agents/session"
	"chainguard.dev/chatops/agents/toolcall"
)

// Agent is a configured model, tool registry and dispatch loop from which
// chat sessions are started.
type Agent struct {
	exec *executor.Executor
	now  func() time.Time
}

// New creates a new meta-agent with the given configuration. The callbacks
// are bound to the tools once, here.
func New[CB any](ctx context.Context, config Config[CB], callbacks CB) (*Agent, error) {
	if config.Tools == nil {
		return nil, errors.New("tools provider cannot be nil")
	}
	model, err := NewModel(ctx, config.Model, config.Credentials)
	if err != nil {
		return nil, err
	}
	reg, err := toolcall.FromProvider(config.Tools, callbacks)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}
	exec, err := executor.New(model, reg, config.Executor...)
	if err != nil {
		return nil, fmt.Errorf("creating executor: %w", err)
	}
	return &Agent{exec: exec, now: time.Now}, nil
}

// Executor returns the agent's dispatch loop.
func (a *Agent) Executor() *executor.Executor { return a.exec }

// Tools returns the definitions of every registered tool, sorted by name.
func (a *Agent) Tools() []toolcall.Definition { return a.exec.Registry().Definitions() }

// NewSession starts an empty conversation whose system prompt lists the
// agent's tools.
func (a *Agent) NewSession(frontend string) (*session.Session, error) {
	sp := session.SystemPrompt{Now: a.now()}
	for _, def := range a.Tools() {
		sp.Capabilities = append(sp.Capabilities, fmt.Sprintf("%s: %s", def.Name, def.Description))
	}
	conv, err := session.NewConversation(sp)
	if err != nil {
		return nil, err
	}
	return session.New(a.exec, conv, frontend), nil
}
