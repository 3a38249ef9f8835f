/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records what happened during one dispatch cycle: the user
text that started it, every tool invocation with its arguments and outcome,
and the final reply.

Each Trace is backed by an OpenTelemetry span ("agent.execution") and each
tool call by a child span ("agent.tool_call"). Completed traces are handed
to the Tracer found in the context; without one, NewDefaultTracer logs them
through clog.

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		SessionID:  "5b0c...",
		Frontend:   "terminal",
		Repository: "octo/repo",
		TurnNumber: 3,
	})
	ctx = agenttrace.WithTracer[string](ctx, agenttrace.ByCode[string](func(t *agenttrace.Trace[string]) {
		fmt.Println(t.String())
	}))

	trace := agenttrace.StartTrace[string](ctx, "open an issue for the login crash")
	tc := trace.StartToolCall("call_1", "create_github_issue", args)
	tc.Complete(payload, nil)
	trace.Complete("Created issue #7", nil)
*/
package agenttrace
