/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder builds model prompts from developer-written
// templates with {{name}} placeholders.
//
// Templates must be string literals: the parameter type is unexported, so
// only untyped constants convert to it. Runtime data goes in through the
// Bind methods, which either insert it verbatim (BindText, for values the
// program computes itself) or serialize it (BindJSON, BindYAML) so text
// typed by a user cannot break out of its placeholder. Substitution is a
// single pass; placeholders inside bound values are never expanded.
//
//	p := promptbuilder.MustNewPrompt(`Summarize these commits:
//	{{commits}}`)
//	text, err := p.MustBindYAML("commits", msgs).Build()
package promptbuilder

import (
	"fmt"
	"maps"
	"slices"
)

// stringLiteral only accepts untyped string constants from other packages.
type stringLiteral string

// Prompt is an immutable template; every Bind returns a new Prompt.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses template and records its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	if _, err := walkTemplate(string(template), func(name string) (string, error) {
		bindings[name] = unbound(name)
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), bindings: bindings}, nil
}

// Placeholders returns the placeholder names in sorted order.
func (p *Prompt) Placeholders() []string {
	return slices.Sorted(maps.Keys(p.bindings))
}

// BindStringLiteral binds a developer-written constant.
func (p *Prompt) BindStringLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, literal(value))
}

// BindText binds a string computed by the program (dates, branch names,
// configuration). User-typed text should go through BindJSON instead.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, literal(value))
}

// BindJSON binds data serialized as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, jsonBinding{data: data})
}

// BindYAML binds data serialized as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, yamlBinding{data: data})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	existing, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := existing.(unbound); !isUnbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build renders the prompt. Every placeholder must be bound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		v, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		return values[name], nil
	})
}

// Bindable is implemented by request types that know how to fill in a
// prompt's placeholders.
type Bindable interface {
	Bind(prompt *Prompt) (*Prompt, error)
}

// Noop passes prompts through unchanged.
type Noop struct{}

// Bind implements Bindable.
func (Noop) Bind(prompt *Prompt) (*Prompt, error) {
	return prompt, nil
}
