/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package chatmodel is the provider-independent contract between the
// dispatch loop and a chat-completion service.
//
// Adapters in the openaimodel, claudemodel and googlemodel subpackages
// translate a Request into the provider's wire format and the reply back
// into a Response. When Request.OnChunk is set an adapter streams and calls
// it with each text delta, but it still returns the complete Response, so
// dispatch behaves the same whether streaming is on or off.
package chatmodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/google/uuid"
)

// ErrEmptyResponse is returned when the model sends neither text nor tool calls.
var ErrEmptyResponse = errors.New("model returned no content")

// StreamFunc receives partial assistant text as it arrives.
type StreamFunc func(chunk string)

// Request is one model invocation.
type Request struct {
	System  string
	Turns   []conversation.Turn
	Tools   []toolcall.Definition
	OnChunk StreamFunc
}

// Usage reports token consumption of one invocation.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply: text, tool requests in emission order, or both.
type Response struct {
	Text      string
	ToolCalls []toolcall.ToolCall
	Usage     Usage
}

// Model is a chat-completion backend.
type Model interface {
	// Name returns the model identifier, used as a metrics dimension.
	Name() string
	// Generate sends the request and returns the full reply.
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Complete runs a single-turn exchange with no tools and returns the text.
func Complete(ctx context.Context, m Model, system, prompt string) (string, error) {
	resp, err := m.Generate(ctx, Request{
		System: system,
		Turns:  []conversation.Turn{conversation.User(prompt)},
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// DecodeArguments parses the JSON argument object of a tool request. An
// empty string is an empty object.
func DecodeArguments(raw []byte) (map[string]any, error) {
	args := map[string]any{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decoding tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// NewToolCall builds a ToolCall, assigning an id when the provider sent none.
// Arguments that fail to decode are kept under the "_raw" key so the tool
// handler reports them as missing rather than the whole reply failing.
func NewToolCall(id, name string, rawArgs []byte) toolcall.ToolCall {
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args, err := DecodeArguments(rawArgs)
	if err != nil {
		args = map[string]any{"_raw": string(rawArgs)}
	}
	return toolcall.ToolCall{ID: id, Name: name, Args: args}
}

// EncodeArguments is the inverse of DecodeArguments, used when replaying an
// assistant turn's tool calls back to a provider.
func EncodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
