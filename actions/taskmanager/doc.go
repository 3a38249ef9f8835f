/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package taskmanager provides the create_asana_task tool.
//
// The parent task is created first. Subtasks follow one at a time, in the
// order given; a subtask that fails does not stop the rest, and the result
// is then a partial_batch_failure listing each failed subtask next to the
// parent's record.
package taskmanager
