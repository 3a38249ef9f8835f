/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params extracts typed values from the untyped argument maps that
// chat models send with tool requests. JSON numbers arrive as float64 and
// JSON arrays as []any; the helpers here convert them to the Go types the
// action executors want.
package params
