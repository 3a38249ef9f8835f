/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaimodel adapts the OpenAI chat completions API to chatmodel.Model.
package openaimodel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Option configures the adapter.
type Option func(*model) error

// WithBaseURL points the client at an OpenAI-compatible endpoint.
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

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(m *model) error {
		if t < 0 || t > 2 {
			return fmt.Errorf("temperature must be between 0 and 2, got %v", t)
		}
		m.temperature = &t
		return nil
	}
}

type model struct {
	client      openai.Client
	name        string
	temperature *float64
	opts        []option.RequestOption
}

// New returns a chat model backed by OpenAI. SDK retries are disabled;
// a failed call surfaces immediately.
func New(apiKey, name string, opts ...Option) (chatmodel.Model, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if name == "" {
		return nil, errors.New("model name is required")
	}
	m := &model{
		name: name,
		opts: []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	m.client = openai.NewClient(m.opts...)
	return m, nil
}

func (m *model) Name() string { return m.name }

func (m *model) Generate(ctx context.Context, req chatmodel.Request) (*chatmodel.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: messages(req.System, req.Turns),
	}
	if m.temperature != nil {
		params.Temperature = openai.Float(*m.temperature)
	}
	for _, def := range req.Tools {
		tool, err := toolParam(def)
		if err != nil {
			return nil, err
		}
		params.Tools = append(params.Tools, tool)
	}

	var completion *openai.ChatCompletion
	if req.OnChunk != nil {
		c, err := m.stream(ctx, params, req.OnChunk)
		if err != nil {
			return nil, err
		}
		completion = c
	} else {
		c, err := m.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("OpenAI chat completion: %w", err)
		}
		completion = c
	}

	if len(completion.Choices) == 0 {
		return nil, chatmodel.ErrEmptyResponse
	}
	msg := completion.Choices[0].Message
	resp := &chatmodel.Response{
		Text: msg.Content,
		Usage: chatmodel.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, chatmodel.NewToolCall(tc.ID, tc.Function.Name, []byte(tc.Function.Arguments)))
	}
	if resp.Text == "" && len(resp.ToolCalls) == 0 {
		return nil, chatmodel.ErrEmptyResponse
	}
	return resp, nil
}

func (m *model) stream(ctx context.Context, params openai.ChatCompletionNewParams, onChunk chatmodel.StreamFunc) (*openai.ChatCompletion, error) {
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		if !acc.AddChunk(chunk) {
			clog.FromContext(ctx).Warn("Dropped out-of-order stream chunk", "id", chunk.ID)
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			onChunk(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("OpenAI chat completion stream: %w", err)
	}
	return &acc.ChatCompletion, nil
}

func messages(system string, turns []conversation.Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(t.Content))
		case conversation.RoleUser:
			out = append(out, openai.UserMessage(t.Content))
		case conversation.RoleAssistant:
			if len(t.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(t.Content))
				continue
			}
			asst := &openai.ChatCompletionAssistantMessageParam{}
			if t.Content != "" {
				asst.Content.OfString = openai.String(t.Content)
			}
			for _, call := range t.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: chatmodel.EncodeArguments(call.Args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: asst})
		case conversation.RoleTool:
			out = append(out, openai.ToolMessage(t.Content, t.ToolCallID))
		}
	}
	return out
}

func toolParam(def toolcall.Definition) (openai.ChatCompletionToolParam, error) {
	schema, err := def.SchemaMap()
	if err != nil {
		return openai.ChatCompletionToolParam{}, err
	}
	return openai.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  shared.FunctionParameters(schema),
		},
	}, nil
}
