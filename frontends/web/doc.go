/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package web serves a browser chat UI.
//
// Routes:
//
//	GET  /              chat page with the session's history
//	POST /api/settings  {"github_repo","github_token","asana_project","asana_token"}; starts a new session
//	POST /api/chat      {"message"}; replies as text/event-stream "chunk" events and a final "done"
//	GET  /api/history   the session's turns as JSON
//	GET  /healthz
//	GET  /metrics       Prometheus metrics
//
// Sessions are kept in memory and identified by the chatops_session cookie.
// Only ids the server issued are honored. Idle sessions expire and the
// least recently used one is dropped once the cap is reached.
package web
