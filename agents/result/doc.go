/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package result defines the outcome of a single tool invocation.

Action executors never encode failures into strings. They return a Result
whose Kind says what happened:

	ok                     the remote object was created
	remote_call_failure    the remote service rejected or failed the call
	missing_argument       a required argument was absent (no remote call made)
	invalid_argument       an argument could not be interpreted
	unknown_tool           the model asked for a tool that is not registered
	partial_batch_failure  the parent object was created but some children failed
	timeout                the call exceeded its deadline
	limit_exceeded         the dispatch loop stopped before running the call

A Result is only turned into text at the boundary where it is placed into
a tool-result conversation turn or displayed to a person:

	r := result.Ok(map[string]any{"id": "42", "url": "https://..."})
	turn.Content = r.Render()

Rendered results can be read back with Parse, and the normalized Record
fields (id, url, state, title) with Extract:

	rec, err := result.Extract[result.Record](string(parsed.Data))
*/
package result
