/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudemodel adapts the Anthropic Messages API to chatmodel.Model.
package claudemodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens bounds each reply when WithMaxTokens is not given.
const DefaultMaxTokens = 4096

// Option configures the adapter.
type Option func(*model) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(m *model) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		m.opts = append(m.opts, option.WithBaseURL(url))
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *model) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		m.opts = append(m.opts, option.WithHTTPClient(c))
		return nil
	}
}

// WithMaxTokens sets the reply token bound.
func WithMaxTokens(tokens int64) Option {
	return func(m *model) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		// Claude's maximum output tokens is 32000
		if tokens > 32000 {
			return fmt.Errorf("max tokens cannot exceed 32000, got %d", tokens)
		}
		m.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(m *model) error {
		if t < 0 || t > 1 {
			return fmt.Errorf("temperature must be between 0 and 1, got %v", t)
		}
		m.temperature = &t
		return nil
	}
}

type model struct {
	client      anthropic.Client
	name        string
	maxTokens   int64
	temperature *float64
	opts        []option.RequestOption
}

// New returns a chat model backed by Claude.
func New(apiKey, name string, opts ...Option) (chatmodel.Model, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	if name == "" {
		return nil, errors.New("model name is required")
	}
	m := &model{
		name:      name,
		maxTokens: DefaultMaxTokens,
		opts:      []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	m.client = anthropic.NewClient(m.opts...)
	return m, nil
}

func (m *model) Name() string { return m.name }

func (m *model) Generate(ctx context.Context, req chatmodel.Request) (*chatmodel.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		MaxTokens: m.maxTokens,
		Messages:  messages(req.Turns),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if m.temperature != nil {
		params.Temperature = anthropic.Float(*m.temperature)
	}
	for _, def := range req.Tools {
		tool, err := toolParam(def)
		if err != nil {
			return nil, err
		}
		params.Tools = append(params.Tools, tool)
	}

	var msg *anthropic.Message
	if req.OnChunk != nil {
		acc, err := m.stream(ctx, params, req.OnChunk)
		if err != nil {
			return nil, err
		}
		msg = acc
	} else {
		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("Claude messages: %w", err)
		}
		msg = resp
	}

	resp := &chatmodel.Response{
		Usage: chatmodel.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, chatmodel.NewToolCall(block.ID, block.Name, block.Input))
		}
	}
	if resp.Text == "" && len(resp.ToolCalls) == 0 {
		return nil, chatmodel.ErrEmptyResponse
	}
	return resp, nil
}

func (m *model) stream(ctx context.Context, params anthropic.MessageNewParams, onChunk chatmodel.StreamFunc) (*anthropic.Message, error) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := &anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulating Claude stream: %w", err)
		}
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
			onChunk(event.Delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Claude messages stream: %w", err)
	}
	return msg, nil
}

// messages converts turns to Claude's alternating form. Consecutive tool
// turns become tool_result blocks of one user message.
func messages(turns []conversation.Turn) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, t := range turns {
		if t.Role == conversation.RoleTool {
			results = append(results, anthropic.NewToolResultBlock(t.ToolCallID, t.Content, toolFailed(t.Content)))
			continue
		}
		flush()
		switch t.Role {
		case conversation.RoleUser, conversation.RoleSystem:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case conversation.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Content))
			}
			for _, call := range t.ToolCalls {
				args := call.Args
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, args, call.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		}
	}
	flush()
	return out
}

// toolFailed reports whether a rendered tool result carries an error status.
func toolFailed(content string) bool {
	var env struct {
		Status string `json:"status"`
	}
	if json.Unmarshal([]byte(content), &env) != nil {
		return false
	}
	return env.Status == "error"
}

func toolParam(def toolcall.Definition) (anthropic.ToolUnionParam, error) {
	schema, err := def.SchemaMap()
	if err != nil {
		return anthropic.ToolUnionParam{}, err
	}
	var required []string
	for _, p := range def.Parameters {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		},
	}, nil
}
