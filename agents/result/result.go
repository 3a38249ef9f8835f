/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies the outcome of a tool invocation.
type Kind string

const (
	KindOK                  Kind = "ok"
	KindRemoteCallFailure   Kind = "remote_call_failure"
	KindMissingArgument     Kind = "missing_argument"
	KindInvalidArgument     Kind = "invalid_argument"
	KindUnknownTool         Kind = "unknown_tool"
	KindPartialBatchFailure Kind = "partial_batch_failure"
	KindTimeout             Kind = "timeout"
	KindLimitExceeded       Kind = "limit_exceeded"
)

// Failure describes one failed item of a batch.
type Failure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Result is the typed outcome of one tool invocation.
type Result struct {
	Kind Kind
	// Data is the success payload. For partial batch failures it holds the
	// parts that did succeed.
	Data any
	// Detail is the human readable failure description.
	Detail   string
	Failures []Failure
}

// Ok wraps a success payload.
func Ok(data any) Result {
	return Result{Kind: KindOK, Data: data}
}

// Err builds a failure of the given kind.
func Err(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Partial reports a batch in which some items failed. When failures is
// empty the batch succeeded and an Ok result is returned.
func Partial(data any, failures []Failure) Result {
	if len(failures) == 0 {
		return Ok(data)
	}
	return Result{
		Kind:     KindPartialBatchFailure,
		Data:     data,
		Detail:   fmt.Sprintf("%d item(s) failed", len(failures)),
		Failures: failures,
	}
}

// FromError classifies an error returned by a remote call.
func FromError(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return Err(KindTimeout, "%v", err)
	}
	return Err(KindRemoteCallFailure, "%v", err)
}

// IsOK reports whether the invocation fully succeeded.
func (r Result) IsOK() bool {
	return r.Kind == KindOK
}

// Err returns the failure as a Go error, or nil when the result is ok.
func (r Result) Err() error {
	if r.IsOK() {
		return nil
	}
	return &Error{Kind: r.Kind, Detail: r.Detail}
}

// Error is the error form of a failed Result.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// envelope is the wire form of a Result inside a tool-result turn.
type envelope struct {
	Status   string          `json:"status"`
	Kind     Kind            `json:"kind,omitempty"`
	Error    string          `json:"error,omitempty"`
	Failures []Failure       `json:"failures,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Render produces the JSON text placed into a tool-result turn.
func (r Result) Render() string {
	env := envelope{Status: "ok"}
	if !r.IsOK() {
		env.Status = "error"
		env.Kind = r.Kind
		env.Error = r.Detail
		env.Failures = r.Failures
	}
	if r.Data != nil {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Sprintf(`{"status":"error","kind":%q,"error":%q}`, KindInvalidArgument, "encoding result: "+err.Error())
		}
		env.Data = b
	}
	out, err := json.Marshal(env)
	if err != nil {
		return fmt.Sprintf(`{"status":"error","error":%q}`, err.Error())
	}
	return string(out)
}

// Parsed is a rendered Result read back from text. Data is left raw so
// callers can decode it into the payload type they expect.
type Parsed struct {
	Kind     Kind
	Detail   string
	Failures []Failure
	Data     json.RawMessage
}

// Parse reads back the output of Render.
func Parse(text string) (Parsed, error) {
	env, err := Extract[envelope](text)
	if err != nil {
		return Parsed{}, fmt.Errorf("parsing tool result: %w", err)
	}
	p := Parsed{Kind: env.Kind, Detail: env.Error, Failures: env.Failures, Data: env.Data}
	switch env.Status {
	case "ok":
		p.Kind = KindOK
	case "error":
		if p.Kind == "" {
			p.Kind = KindRemoteCallFailure
		}
	default:
		return Parsed{}, fmt.Errorf("parsing tool result: unknown status %q", env.Status)
	}
	return p, nil
}
