/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/chatmodel/claudemodel"
	"chainguard.dev/chatops/agents/chatmodel/googlemodel"
	"chainguard.dev/chatops/agents/chatmodel/openaimodel"
)

// Provider names a chat-completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

var openAIPrefixes = []string{"gpt-", "o1", "o3", "o4", "chatgpt-"}

// ProviderFor returns the provider serving model.
func ProviderFor(model string) (Provider, error) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGoogle, nil
	}
	for _, p := range openAIPrefixes {
		if strings.HasPrefix(m, p) {
			return ProviderOpenAI, nil
		}
	}
	return "", fmt.Errorf("unsupported model: %q (expected gpt-*, o1*, o3*, o4*, chatgpt-*, claude-* or gemini-*)", model)
}

// NewModel builds the chat model adapter for model.
func NewModel(ctx context.Context, model string, creds Credentials) (chatmodel.Model, error) {
	provider, err := ProviderFor(model)
	if err != nil {
		return nil, err
	}

	switch provider {
	case ProviderOpenAI:
		if creds.OpenAIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for OpenAI models")
		}
		var opts []openaimodel.Option
		if creds.OpenAIBaseURL != "" {
			opts = append(opts, openaimodel.WithBaseURL(creds.OpenAIBaseURL))
		}
		if creds.HTTPClient != nil {
			opts = append(opts, openaimodel.WithHTTPClient(creds.HTTPClient))
		}
		return openaimodel.New(creds.OpenAIKey, model, opts...)

	case ProviderAnthropic:
		if creds.AnthropicKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for Claude models")
		}
		var opts []claudemodel.Option
		if creds.AnthropicBaseURL != "" {
			opts = append(opts, claudemodel.WithBaseURL(creds.AnthropicBaseURL))
		}
		if creds.HTTPClient != nil {
			opts = append(opts, claudemodel.WithHTTPClient(creds.HTTPClient))
		}
		return claudemodel.New(creds.AnthropicKey, model, opts...)

	default:
		if creds.GeminiKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for Gemini models")
		}
		var opts []googlemodel.Option
		if creds.GeminiBaseURL != "" {
			opts = append(opts, googlemodel.WithBaseURL(creds.GeminiBaseURL))
		}
		if creds.HTTPClient != nil {
			opts = append(opts, googlemodel.WithHTTPClient(creds.HTTPClient))
		}
		return googlemodel.New(ctx, creds.GeminiKey, model, opts...)
	}
}
