/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

// ToolProvider defines tools for an agent.
// Compose providers by wrapping: Empty -> GitHub -> Asana. Each layer adds
// its tools to those of the provider it wraps, using the callbacks in CB.
// Conversion to SDK-specific types happens downstream in the chat model
// adapters.
type ToolProvider[CB any] interface {
	// Tools returns the tools keyed by name.
	Tools(cb CB) map[string]Tool
}
