/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall_test

import (
	"context"
	"errors"
	"testing"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

func echoTool(name string) toolcall.Tool {
	return toolcall.Tool{
		Def: toolcall.Definition{
			Name:        name,
			Description: "Echo the input back",
			Parameters: []toolcall.Parameter{
				{Name: "input", Type: "string", Description: "The input", Required: true},
				{Name: "tags", Type: "array", Items: "string", Description: "Tags"},
				{Name: "extra", Type: "object", Description: "Anything"},
			},
		},
		Handler: func(_ context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[string]) result.Result {
			input, errResp := toolcall.Param[string](call, trace, "input")
			if errResp != nil {
				return *errResp
			}
			return result.Ok(map[string]any{"received": input})
		},
	}
}

func TestRegistryResolve(t *testing.T) {
	reg, err := toolcall.NewRegistry(echoTool("b_tool"), echoTool("a_tool"))
	if err != nil {
		t.Fatalf("NewRegistry() = %v", err)
	}

	if _, err := reg.Resolve("a_tool"); err != nil {
		t.Errorf("Resolve(a_tool) = %v", err)
	}
	_, err = reg.Resolve("drop_database")
	if !errors.Is(err, toolcall.ErrUnknownTool) {
		t.Errorf("Resolve(drop_database): got = %v, wanted ErrUnknownTool", err)
	}

	if diff := cmp.Diff([]string{"a_tool", "b_tool"}, reg.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
	defs := reg.Definitions()
	if len(defs) != 2 || defs[0].Name != "a_tool" {
		t.Errorf("Definitions(): got = %v, wanted sorted a_tool, b_tool", defs)
	}
}

func TestRegistryRejectsInvalidTools(t *testing.T) {
	tests := []struct {
		name  string
		tools []toolcall.Tool
	}{
		{name: "duplicate", tools: []toolcall.Tool{echoTool("x"), echoTool("x")}},
		{name: "empty name", tools: []toolcall.Tool{echoTool("")}},
		{name: "nil handler", tools: []toolcall.Tool{{Def: toolcall.Definition{Name: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := toolcall.NewRegistry(tt.tools...); err == nil {
				t.Error("NewRegistry(): got = nil, wanted error")
			}
		})
	}
}

type stackProvider struct {
	base toolcall.ToolProvider[toolcall.EmptyTools]
}

func (p stackProvider) Tools(cb toolcall.EmptyTools) map[string]toolcall.Tool {
	tools := p.base.Tools(cb)
	tools["echo"] = echoTool("echo")
	return tools
}

func TestFromProvider(t *testing.T) {
	reg, err := toolcall.FromProvider[toolcall.EmptyTools](stackProvider{base: toolcall.NewEmptyToolsProvider()}, toolcall.EmptyTools{})
	if err != nil {
		t.Fatalf("FromProvider() = %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len(): got = %d, wanted = 1", reg.Len())
	}

	empty, err := toolcall.FromProvider(toolcall.NewEmptyToolsProvider(), toolcall.EmptyTools{})
	if err != nil {
		t.Fatalf("FromProvider(empty) = %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("empty Len(): got = %d, wanted = 0", empty.Len())
	}
}

func TestParamResults(t *testing.T) {
	var recorded []string
	trace := agenttrace.ByCode[string](func(tr *agenttrace.Trace[string]) {
		for _, tc := range tr.ToolCalls {
			recorded = append(recorded, tc.Name)
		}
	}).NewTrace(context.Background(), "test")

	tool := echoTool("echo")
	ctx := context.Background()

	if got := tool.Handler(ctx, toolcall.ToolCall{ID: "1", Name: "echo", Args: map[string]any{"input": "hi"}}, trace); !got.IsOK() {
		t.Errorf("valid call: got = %v, wanted ok", got)
	}
	if got := tool.Handler(ctx, toolcall.ToolCall{ID: "2", Name: "echo", Args: map[string]any{}}, trace); got.Kind != result.KindMissingArgument {
		t.Errorf("missing input: got = %q, wanted = %q", got.Kind, result.KindMissingArgument)
	}
	if got := tool.Handler(ctx, toolcall.ToolCall{ID: "3", Name: "echo", Args: map[string]any{"input": 7.0}}, trace); got.Kind != result.KindInvalidArgument {
		t.Errorf("wrong type: got = %q, wanted = %q", got.Kind, result.KindInvalidArgument)
	}

	trace.Complete("", nil)
	if diff := cmp.Diff([]string{"echo", "echo"}, recorded); diff != "" {
		t.Errorf("bad calls recorded (-want +got):\n%s", diff)
	}
}

func TestDefinitionSchema(t *testing.T) {
	got, err := echoTool("echo").Def.SchemaMap()
	if err != nil {
		t.Fatalf("SchemaMap() = %v", err)
	}
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{"type": "string", "description": "The input"},
			"tags": map[string]any{
				"type":        "array",
				"description": "Tags",
				"items":       map[string]any{"type": "string"},
			},
			"extra": map[string]any{
				"type":                 "object",
				"description":          "Anything",
				"additionalProperties": true,
			},
		},
		"required": []any{"input"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SchemaMap() (-want +got):\n%s", diff)
	}
}
