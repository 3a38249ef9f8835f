/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

// EmptyTools is the base callbacks type with no callbacks.
type EmptyTools struct{}

type emptyToolsProvider struct{}

var _ ToolProvider[EmptyTools] = emptyToolsProvider{}

// NewEmptyToolsProvider returns a ToolProvider that provides no tools.
// Use this as the base when composing tool provider stacks.
func NewEmptyToolsProvider() ToolProvider[EmptyTools] {
	return emptyToolsProvider{}
}

func (emptyToolsProvider) Tools(EmptyTools) map[string]Tool {
	return map[string]Tool{}
}
