/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider-independent tools and the registry the
// dispatch loop resolves them from.
//
// A Tool pairs a Definition (name, description, parameters) with a Handler
// that returns a typed result.Result. Tools are grouped by ToolProvider
// stacks, so one registry can carry the GitHub tools, the Asana tools, or
// both:
//
//	provider := taskmanager.NewToolsProvider(
//		issuemanager.NewToolsProvider(toolcall.NewEmptyToolsProvider()))
//	reg, err := toolcall.FromProvider(provider,
//		taskmanager.NewTools(issuemanager.NewTools(toolcall.EmptyTools{}, gh), asana))
//
// Resolve reports unregistered names with an error wrapping ErrUnknownTool;
// the caller answers such requests with an unknown_tool result instead of
// failing the conversation.
package toolcall
