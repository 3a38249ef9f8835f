/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package session owns one conversation and feeds user text through the
// dispatch loop, one submission at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/executor"
	"chainguard.dev/chatops/agents/promptbuilder"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// LimitExceededText is shown when a reply needed more model calls than allowed.
const LimitExceededText = "tool-call limit exceeded"

// Runner is the dispatch loop a session drives.
type Runner interface {
	Run(ctx context.Context, conv *conversation.Conversation, onChunk chatmodel.StreamFunc) (executor.Reply, error)
}

// Session is a single user's conversation.
type Session struct {
	ID       string
	Frontend string

	// Repository is the GitHub repository the session's tools target, if any.
	Repository string

	runner Runner
	conv   *conversation.Conversation

	mu    sync.Mutex
	turns int
}

// New returns a session over conv. Frontend names the UI in traces and
// metrics.
func New(runner Runner, conv *conversation.Conversation, frontend string) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Frontend: frontend,
		runner:   runner,
		conv:     conv,
	}
}

// Send appends text as a user turn, runs the dispatch loop and appends the
// final assistant turn. The returned string is what the user should see:
// the model's answer, or a description of why there is none. Concurrent
// sends are serialized.
//
// The error is returned for logging only; it has already been rendered
// into the conversation.
func (s *Session) Send(ctx context.Context, text string, onChunk chatmodel.StreamFunc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns++
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		SessionID:  s.ID,
		Frontend:   s.Frontend,
		Repository: s.Repository,
		TurnNumber: s.turns,
	})
	log := clog.FromContext(ctx).With("session", s.ID).With("turn", s.turns)

	s.conv.Append(conversation.User(text))
	reply, err := s.runner.Run(ctx, s.conv, onChunk)

	var shown string
	switch {
	case err == nil:
		shown = reply.Text
	case errors.Is(err, executor.ErrToolCallLimit):
		log.With("iterations", reply.Iterations).Warn("Reply abandoned at the tool-call limit")
		shown = LimitExceededText
	default:
		log.With("error", err).Error("Dispatch cycle failed")
		shown = fmt.Sprintf("error: %v", err)
	}
	s.conv.Append(conversation.Assistant(shown))
	return shown, err
}

// Turns returns the conversation so far.
func (s *Session) Turns() []conversation.Turn {
	return s.conv.Turns()
}

const systemTemplate = `You are a helpful assistant that turns requests into actions.
Today is {{date}}.
{{capabilities}}
Use the available tools when the user asks for something they can do.
Call a tool only with arguments the user provided or clearly implied, and
ask for anything required that is missing. After a tool runs, tell the user
what happened, including links from the result.`

// SystemPrompt describes the session's capabilities to the model. It
// implements promptbuilder.Bindable.
type SystemPrompt struct {
	Now          time.Time
	Capabilities []string
}

// Bind implements promptbuilder.Bindable.
func (p SystemPrompt) Bind(prompt *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	prompt, err := prompt.BindText("date", p.Now.Format("Monday, 2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(p.Capabilities) == 0 {
		return prompt.BindText("capabilities", "You have no tools; answer from your own knowledge.")
	}
	return prompt.BindYAML("capabilities", map[string][]string{"capabilities": p.Capabilities})
}

// NewConversation starts a conversation whose system prompt is sp rendered.
func NewConversation(sp promptbuilder.Bindable) (*conversation.Conversation, error) {
	bound, err := sp.Bind(promptbuilder.MustNewPrompt(systemTemplate))
	if err != nil {
		return nil, fmt.Errorf("binding system prompt: %w", err)
	}
	system, err := bound.Build()
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}
	return conversation.New(system), nil
}
