/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"net/http"

	"chainguard.dev/chatops/agents/executor"
	"chainguard.dev/chatops/agents/toolcall"
)

// Credentials holds the provider API keys and endpoint overrides. Only the
// key of the provider serving the chosen model is required.
type Credentials struct {
	OpenAIKey     string
	OpenAIBaseURL string

	AnthropicKey     string
	AnthropicBaseURL string

	GeminiKey     string
	GeminiBaseURL string

	// HTTPClient, when set, is used for every provider.
	HTTPClient *http.Client
}

// Config defines the configuration for a meta-agent instance.
//   - CB is the type providing all tool callbacks.
type Config[CB any] struct {
	// Model selects both the provider and the model, e.g. "gpt-4o-mini",
	// "claude-sonnet-4-5" or "gemini-2.5-flash".
	Model string

	Credentials Credentials

	// Tools provides all tool definitions for this agent.
	// Compose providers using issuemanager.NewToolsProvider,
	// taskmanager.NewToolsProvider and toolcall.NewEmptyToolsProvider.
	Tools toolcall.ToolProvider[CB]

	// Executor options, applied after the defaults.
	Executor []executor.Option
}
