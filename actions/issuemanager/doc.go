/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package issuemanager provides the GitHub tools: create_github_issue and
// create_pull_request.
//
// Pull requests opened without a body get one written by a Synthesizer from
// the head branch's commit messages. When that is not possible the body is
// FallbackDescription.
//
// Usage:
//
//	gh, err := issuemanager.NewClient(ctx, token, "owner/repo")
//	tools := issuemanager.NewTools(toolcall.EmptyTools{}, gh,
//		issuemanager.NewSynthesizer(gh, model))
//	provider := issuemanager.NewToolsProvider(toolcall.NewEmptyToolsProvider())
//	reg, err := toolcall.FromProvider(provider, tools)
package issuemanager
