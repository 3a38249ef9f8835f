/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownTool is wrapped by Resolve when no tool has the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is the set of tools advertised to the model. Names are unique.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns a registry holding tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FromProvider builds a registry from the tools a provider stack returns.
func FromProvider[CB any](p ToolProvider[CB], cb CB) (*Registry, error) {
	tools := p.Tools(cb)
	names := slices.Sorted(maps.Keys(tools))
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, name := range names {
		t := tools[name]
		if t.Def.Name != name {
			return nil, fmt.Errorf("tool registered as %q is named %q", name, t.Def.Name)
		}
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Empty and duplicate names and nil handlers are rejected.
func (r *Registry) Register(t Tool) error {
	if t.Def.Name == "" {
		return errors.New("tool name must not be empty")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Def.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Def.Name)
	}
	r.tools[t.Def.Name] = t
	return nil
}

// Resolve returns the tool with the given name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.tools))
}

// Definitions returns every tool definition, sorted by name so the model
// sees a stable tool list across calls.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, name := range slices.Sorted(maps.Keys(r.tools)) {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
