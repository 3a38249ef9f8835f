/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaimodel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/google/go-cmp/cmp"
)

type fakeServer struct {
	mu     sync.Mutex
	bodies []map[string]any
	reply  func(w http.ResponseWriter, body map[string]any)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	f.reply(w, body)
}

func newTestModel(t *testing.T, f *fakeServer) chatmodel.Model {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	m, err := New("test-key", "gpt-4o", WithBaseURL(srv.URL+"/v1/"), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return m
}

const toolCallReply = `{
  "id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
    "role": "assistant", "content": null,
    "tool_calls": [{"id": "call_1", "type": "function",
      "function": {"name": "create_github_issue", "arguments": "{\"title\":\"Crash on start\"}"}}]
  }}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestGenerateToolCalls(t *testing.T) {
	f := &fakeServer{reply: func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, toolCallReply)
	}}
	m := newTestModel(t, f)

	call := toolcall.ToolCall{ID: "call_0", Name: "create_asana_task", Args: map[string]any{"task_name": "Ship"}}
	resp, err := m.Generate(context.Background(), chatmodel.Request{
		System: "You are helpful.",
		Turns: []conversation.Turn{
			conversation.User("make a task"),
			conversation.Assistant("", call),
			conversation.ToolResult(call, `{"status":"ok"}`),
			conversation.User("now file an issue"),
		},
		Tools: []toolcall.Definition{{
			Name:        "create_github_issue",
			Description: "Create an issue.",
			Parameters:  []toolcall.Parameter{{Name: "title", Type: "string", Required: true}},
		}},
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	want := &chatmodel.Response{
		ToolCalls: []toolcall.ToolCall{{ID: "call_1", Name: "create_github_issue", Args: map[string]any{"title": "Crash on start"}}},
		Usage:     chatmodel.Usage{InputTokens: 10, OutputTokens: 5},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("Generate() (-want +got):\n%s", diff)
	}

	body := f.bodies[0]
	if body["model"] != "gpt-4o" {
		t.Errorf("model: got = %v, wanted = gpt-4o", body["model"])
	}
	msgs, _ := body["messages"].([]any)
	var roles []string
	for _, raw := range msgs {
		msg, _ := raw.(map[string]any)
		roles = append(roles, fmt.Sprint(msg["role"]))
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "tool", "user"}, roles); diff != "" {
		t.Errorf("roles (-want +got):\n%s", diff)
	}
	toolMsg, _ := msgs[3].(map[string]any)
	if toolMsg["tool_call_id"] != "call_0" {
		t.Errorf("tool_call_id: got = %v, wanted = call_0", toolMsg["tool_call_id"])
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools: got = %d, wanted = 1", len(tools))
	}
	fn, _ := tools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "create_github_issue" {
		t.Errorf("tool name: got = %v", fn["name"])
	}
}

func TestGenerateStreaming(t *testing.T) {
	chunks := []string{
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":"stop"}]}`,
		`{"id":"c2","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
	}
	f := &fakeServer{reply: func(w http.ResponseWriter, body map[string]any) {
		if body["stream"] != true {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"c3","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}}
	m := newTestModel(t, f)

	var got []string
	streamed, err := m.Generate(context.Background(), chatmodel.Request{
		Turns:   []conversation.Turn{conversation.User("hi")},
		OnChunk: func(c string) { got = append(got, c) },
	})
	if err != nil {
		t.Fatalf("Generate(stream) = %v", err)
	}
	if diff := cmp.Diff([]string{"Hel", "lo"}, got); diff != "" {
		t.Errorf("chunks (-want +got):\n%s", diff)
	}

	plain, err := m.Generate(context.Background(), chatmodel.Request{
		Turns: []conversation.Turn{conversation.User("hi")},
	})
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if diff := cmp.Diff(plain, streamed); diff != "" {
		t.Errorf("streamed vs plain (-plain +streamed):\n%s", diff)
	}
}

func TestGenerateError(t *testing.T) {
	f := &fakeServer{reply: func(w http.ResponseWriter, _ map[string]any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}}
	m := newTestModel(t, f)

	_, err := m.Generate(context.Background(), chatmodel.Request{Turns: []conversation.Turn{conversation.User("hi")}})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Generate(): got = %v, wanted 401 error", err)
	}
	if len(f.bodies) != 1 {
		t.Errorf("attempts: got = %d, wanted = 1 (no retries)", len(f.bodies))
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("New(no key): got = nil, wanted error")
	}
	if _, err := New("k", ""); err == nil {
		t.Error("New(no model): got = nil, wanted error")
	}
	if _, err := New("k", "gpt-4o", WithTemperature(3)); err == nil {
		t.Error("New(temperature 3): got = nil, wanted error")
	}
}
