/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor implements the tool-dispatch loop.
//
// One call to Run answers one user turn:
//
//	AwaitingModel --(no tool calls)--> Done
//	AwaitingModel --(tool calls)--> Dispatching --> AwaitingModel
//
// In Dispatching every request is resolved against the registry and
// executed in the order the model emitted it, and each outcome is appended
// to the conversation as a tool-result turn. Requests for tools that are not
// registered are answered with an unknown_tool result rather than aborting
// the cycle, so the model can correct itself.
//
// The loop is bounded. After WithMaxIterations model calls (default 8) any
// further requests are answered with limit_exceeded and Run returns
// ErrToolCallLimit. Every model and tool call runs under WithCallTimeout
// (default 60s); a slow tool becomes a timeout result while a slow model
// fails the cycle.
//
// Usage:
//
//	reg, _ := toolcall.FromProvider(provider, callbacks)
//	exec, err := executor.New(model, reg,
//		executor.WithMaxIterations(8),
//		executor.WithParallelTools(4),
//	)
//	reply, err := exec.Run(ctx, conv, func(chunk string) { fmt.Print(chunk) })
package executor
