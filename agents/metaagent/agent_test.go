/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metaagent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall"
)

func TestProviderFor(t *testing.T) {
	tests := []struct {
		model   string
		want    Provider
		wantErr bool
	}{
		{model: "gpt-4o-mini", want: ProviderOpenAI},
		{model: "GPT-4o", want: ProviderOpenAI},
		{model: "o3-mini", want: ProviderOpenAI},
		{model: "o4-mini", want: ProviderOpenAI},
		{model: "chatgpt-4o-latest", want: ProviderOpenAI},
		{model: "claude-sonnet-4-5", want: ProviderAnthropic},
		{model: "gemini-2.5-flash", want: ProviderGoogle},
		{model: "unknown-model", wantErr: true},
		{model: "", wantErr: true},
		{model: "gem", wantErr: true},
		{model: "cla", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := ProviderFor(tt.model)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ProviderFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "unsupported model") {
				t.Errorf("ProviderFor() error = %v, wanted unsupported model", err)
			}
			if got != tt.want {
				t.Errorf("ProviderFor(): got = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestNewModelRequiresProviderKey(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		model   string
		creds   Credentials
		wantErr string
	}{
		{model: "gpt-4o", creds: Credentials{AnthropicKey: "a"}, wantErr: "OPENAI_API_KEY"},
		{model: "claude-sonnet-4-5", creds: Credentials{OpenAIKey: "o"}, wantErr: "ANTHROPIC_API_KEY"},
		{model: "gemini-2.5-flash", creds: Credentials{OpenAIKey: "o"}, wantErr: "GEMINI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, err := NewModel(ctx, tt.model, tt.creds)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewModel(): got = %v, wanted error mentioning %s", err, tt.wantErr)
			}
		})
	}

	for _, model := range []string{"gpt-4o", "claude-sonnet-4-5", "gemini-2.5-flash"} {
		m, err := NewModel(ctx, model, Credentials{OpenAIKey: "o", AnthropicKey: "a", GeminiKey: "g"})
		if err != nil {
			t.Fatalf("NewModel(%s) = %v", model, err)
		}
		if m.Name() != model {
			t.Errorf("Name(): got = %q, wanted = %q", m.Name(), model)
		}
	}
}

type pingTools struct {
	reply string
}

type pingProvider struct{}

func (pingProvider) Tools(cb pingTools) map[string]toolcall.Tool {
	return map[string]toolcall.Tool{
		"ping": {
			Def: toolcall.Definition{Name: "ping", Description: "Checks the service is up."},
			Handler: func(context.Context, toolcall.ToolCall, *agenttrace.Trace[string]) result.Result {
				return result.Ok(cb.reply)
			},
		},
	}
}

func TestAgentSession(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"ping","arguments":"{}"}}]}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
			return
		}
		fmt.Fprint(w, `{"id":"c2","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"The service is up."}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	agent, err := New(context.Background(), Config[pingTools]{
		Model:       "gpt-4o-mini",
		Credentials: Credentials{OpenAIKey: "k", OpenAIBaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()},
		Tools:       pingProvider{},
	}, pingTools{reply: "pong"})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	agent.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	s, err := agent.NewSession("terminal")
	if err != nil {
		t.Fatalf("NewSession() = %v", err)
	}
	got, err := s.Send(context.Background(), "is it up?", nil)
	if err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if got != "The service is up." {
		t.Errorf("Send(): got = %q", got)
	}
	if got := len(s.Turns()); got != 4 {
		t.Errorf("turns: got = %d, wanted = 4", got)
	}
}

func TestNewRequiresTools(t *testing.T) {
	_, err := New(context.Background(), Config[pingTools]{Model: "gpt-4o", Credentials: Credentials{OpenAIKey: "k"}}, pingTools{})
	if err == nil {
		t.Error("New(no tools): got = nil, wanted error")
	}
}
