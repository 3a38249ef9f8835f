/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metaagent assembles a chat agent from a model name, provider
// credentials and a tool provider stack.
//
// The framework is generic over the callbacks type CB, so an agent can be
// composed with any combination of tools from the action packages.
//
// # Model Support
//
// The provider is chosen from the model name:
//   - "gpt-", "o1", "o3", "o4" and "chatgpt-" models use OpenAI
//   - "claude-" models use Anthropic
//   - "gemini-" models use the Gemini API
//
// Only the API key of the selected provider is required.
//
// # Usage
//
// Define your callback type by composing tool callbacks:
//
//	type Callbacks = taskmanager.Tools[issuemanager.Tools[toolcall.EmptyTools]]
//
// Create the corresponding tool provider:
//
//	tools := taskmanager.NewToolsProvider(
//	    issuemanager.NewToolsProvider(
//	        toolcall.NewEmptyToolsProvider(),
//	    ),
//	)
//
// Configure and create the agent, then start sessions from it:
//
//	agent, err := metaagent.New(ctx, metaagent.Config[Callbacks]{
//	    Model:       "gpt-4o-mini",
//	    Credentials: metaagent.Credentials{OpenAIKey: key},
//	    Tools:       tools,
//	}, callbacks)
//	s, err := agent.NewSession("terminal")
//	reply, err := s.Send(ctx, "open an issue about the login crash", nil)
package metaagent
