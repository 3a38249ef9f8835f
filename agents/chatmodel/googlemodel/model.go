/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlemodel adapts the Gemini API to chatmodel.Model.
package googlemodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"google.golang.org/genai"
)

// Option configures the adapter.
type Option func(*model) error

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(m *model) error {
		if url == "" {
			return errors.New("base URL cannot be empty")
		}
		m.config.HTTPOptions.BaseURL = url
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *model) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		m.config.HTTPClient = c
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(m *model) error {
		if t < 0 || t > 2 {
			return fmt.Errorf("temperature must be between 0 and 2, got %v", t)
		}
		m.temperature = &t
		return nil
	}
}

type model struct {
	client      *genai.Client
	config      genai.ClientConfig
	name        string
	temperature *float32
}

// New returns a chat model backed by Gemini.
func New(ctx context.Context, apiKey, name string, opts ...Option) (chatmodel.Model, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if name == "" {
		return nil, errors.New("model name is required")
	}
	m := &model{
		name: name,
		config: genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	client, err := genai.NewClient(ctx, &m.config)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	m.client = client
	return m, nil
}

func (m *model) Name() string { return m.name }

func (m *model) Generate(ctx context.Context, req chatmodel.Request) (*chatmodel.Response, error) {
	config := &genai.GenerateContentConfig{Temperature: m.temperature}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		tool := &genai.Tool{}
		for _, def := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, declaration(def))
		}
		config.Tools = []*genai.Tool{tool}
	}
	contents := contents(req.Turns)

	resp := &chatmodel.Response{}
	if req.OnChunk == nil {
		r, err := m.client.Models.GenerateContent(ctx, m.name, contents, config)
		if err != nil {
			return nil, fmt.Errorf("Gemini generate content: %w", err)
		}
		collect(resp, r, nil)
	} else {
		for r, err := range m.client.Models.GenerateContentStream(ctx, m.name, contents, config) {
			if err != nil {
				return nil, fmt.Errorf("Gemini generate content stream: %w", err)
			}
			collect(resp, r, req.OnChunk)
		}
	}
	if resp.Text == "" && len(resp.ToolCalls) == 0 {
		return nil, chatmodel.ErrEmptyResponse
	}
	return resp, nil
}

// collect folds one (possibly partial) response into resp.
func collect(resp *chatmodel.Response, r *genai.GenerateContentResponse, onChunk chatmodel.StreamFunc) {
	if r.UsageMetadata != nil {
		resp.Usage = chatmodel.Usage{
			InputTokens:  int64(r.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(r.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return
	}
	for _, part := range r.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			resp.ToolCalls = append(resp.ToolCalls, chatmodel.NewToolCall(part.FunctionCall.ID, part.FunctionCall.Name, args))
		case part.Text != "" && !part.Thought:
			resp.Text += part.Text
			if onChunk != nil {
				onChunk(part.Text)
			}
		}
	}
}

func contents(turns []conversation.Turn) []*genai.Content {
	var out []*genai.Content
	var responses []*genai.Part
	flush := func() {
		if len(responses) > 0 {
			out = append(out, genai.NewContentFromParts(responses, genai.RoleUser))
			responses = nil
		}
	}
	for _, t := range turns {
		if t.Role == conversation.RoleTool {
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       t.ToolCallID,
				Name:     t.ToolName,
				Response: functionResponse(t.Content),
			}})
			continue
		}
		flush()
		switch t.Role {
		case conversation.RoleUser, conversation.RoleSystem:
			out = append(out, genai.NewContentFromText(t.Content, genai.RoleUser))
		case conversation.RoleAssistant:
			var parts []*genai.Part
			if t.Content != "" {
				parts = append(parts, genai.NewPartFromText(t.Content))
			}
			for _, call := range t.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		}
	}
	flush()
	return out
}

// functionResponse wraps a rendered tool result. Gemini reads the "output"
// and "error" keys.
func functionResponse(content string) map[string]any {
	var env map[string]any
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return map[string]any{"output": content}
	}
	if env["status"] == "error" {
		return map[string]any{"error": env}
	}
	return map[string]any{"output": env}
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func schemaType(t string) genai.Type {
	if st, ok := schemaTypes[t]; ok {
		return st
	}
	return genai.TypeString
}

func declaration(def toolcall.Definition) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(def.Parameters)),
	}
	for _, p := range def.Parameters {
		prop := &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
		if p.Type == "array" {
			items := p.Items
			if items == "" {
				items = "string"
			}
			prop.Items = &genai.Schema{Type: schemaType(items)}
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters:  schema,
	}
}
