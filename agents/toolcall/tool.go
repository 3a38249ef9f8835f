/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall/params"
)

// ToolCall is a provider-independent tool invocation request emitted by a
// chat model. ID correlates the request with its tool-result turn.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Definition describes a tool's name, purpose and parameters as advertised
// to the model.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean", "array", "object"
	Items       string // element type when Type is "array"
	Description string
	Required    bool
}

// Handler executes one tool call.
type Handler func(ctx context.Context, call ToolCall, trace *agenttrace.Trace[string]) result.Result

// Tool pairs a definition with the handler that executes it.
type Tool struct {
	Def     Definition
	Handler Handler
}

// badCallRecorder is the subset of the trace used to record rejected calls.
type badCallRecorder interface {
	BadToolCall(id, name string, params map[string]any, err error)
}

// Param extracts a required argument. When it is absent or blank a
// missing_argument result is returned; when it has the wrong type an
// invalid_argument result. In both cases the call is recorded as bad.
func Param[T any](call ToolCall, trace badCallRecorder, name string) (T, *result.Result) {
	v, err := params.Extract[T](call.Args, name)
	if err != nil {
		return v, reject(call, trace, err)
	}
	return v, nil
}

// OptionalParam extracts an optional argument, returning defaultValue when
// it is absent.
func OptionalParam[T any](call ToolCall, trace badCallRecorder, name string, defaultValue T) (T, *result.Result) {
	v, err := params.ExtractOptional(call.Args, name, defaultValue)
	if err != nil {
		return v, reject(call, trace, err)
	}
	return v, nil
}

// StringSliceParam extracts an optional array of strings.
func StringSliceParam(call ToolCall, trace badCallRecorder, name string) ([]string, *result.Result) {
	v, err := params.ExtractStringSlice(call.Args, name)
	if err != nil {
		return nil, reject(call, trace, err)
	}
	return v, nil
}

// MapParam extracts an optional JSON object argument.
func MapParam(call ToolCall, trace badCallRecorder, name string) (map[string]any, *result.Result) {
	v, err := params.ExtractMap(call.Args, name)
	if err != nil {
		return nil, reject(call, trace, err)
	}
	return v, nil
}

func reject(call ToolCall, trace badCallRecorder, err error) *result.Result {
	if trace != nil {
		trace.BadToolCall(call.ID, call.Name, call.Args, err)
	}
	kind := result.KindInvalidArgument
	if errors.Is(err, params.ErrMissing) {
		kind = result.KindMissingArgument
	}
	r := result.Err(kind, "%v", err)
	return &r
}
