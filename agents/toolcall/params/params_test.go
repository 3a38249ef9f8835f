/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params_test

import (
	"errors"
	"testing"

	"chainguard.dev/chatops/agents/toolcall/params"
	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	args := map[string]any{
		"title":     "Fix login",
		"blank":     "   ",
		"milestone": float64(3),
		"numstr":    "12",
		"fraction":  float64(1.5),
		"draft":     true,
		"null":      nil,
	}

	t.Run("string", func(t *testing.T) {
		got, err := params.Extract[string](args, "title")
		if err != nil {
			t.Fatalf("Extract() = %v", err)
		}
		if got != "Fix login" {
			t.Errorf("got = %q, wanted = %q", got, "Fix login")
		}
	})

	t.Run("int from float64", func(t *testing.T) {
		got, err := params.Extract[int](args, "milestone")
		if err != nil {
			t.Fatalf("Extract() = %v", err)
		}
		if got != 3 {
			t.Errorf("got = %d, wanted = 3", got)
		}
	})

	t.Run("int from numeric string", func(t *testing.T) {
		got, err := params.Extract[int](args, "numstr")
		if err != nil {
			t.Fatalf("Extract() = %v", err)
		}
		if got != 12 {
			t.Errorf("got = %d, wanted = 12", got)
		}
	})

	for _, name := range []string{"absent", "blank", "null"} {
		t.Run("missing "+name, func(t *testing.T) {
			if _, err := params.Extract[string](args, name); !errors.Is(err, params.ErrMissing) {
				t.Errorf("Extract(%s): got = %v, wanted ErrMissing", name, err)
			}
		})
	}

	t.Run("wrong type", func(t *testing.T) {
		_, err := params.Extract[int](args, "title")
		if err == nil || errors.Is(err, params.ErrMissing) {
			t.Errorf("Extract(title as int): got = %v, wanted type error", err)
		}
	})

	t.Run("fraction is not an int", func(t *testing.T) {
		if _, err := params.Extract[int](args, "fraction"); err == nil {
			t.Error("Extract(1.5 as int): got = nil, wanted error")
		}
	})
}

func TestExtractOptional(t *testing.T) {
	args := map[string]any{"draft": true, "base": nil, "count": "x"}

	if got, err := params.ExtractOptional(args, "draft", false); err != nil || !got {
		t.Errorf("draft: got = %v, %v, wanted = true, nil", got, err)
	}
	if got, err := params.ExtractOptional(args, "base", "main"); err != nil || got != "main" {
		t.Errorf("base: got = %q, %v, wanted = main, nil", got, err)
	}
	if got, err := params.ExtractOptional(args, "head", ""); err != nil || got != "" {
		t.Errorf("head: got = %q, %v, wanted = empty, nil", got, err)
	}
	if _, err := params.ExtractOptional(args, "count", 0); err == nil {
		t.Error("count: got = nil, wanted error")
	}
}

func TestExtractStringSlice(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    []string
		wantErr bool
	}{
		{name: "json array", value: []any{"bug", "ui"}, want: []string{"bug", "ui"}},
		{name: "string slice", value: []string{"a"}, want: []string{"a"}},
		{name: "single string", value: "bug", want: []string{"bug"}},
		{name: "absent", value: nil, want: nil},
		{name: "mixed", value: []any{"a", float64(1)}, wantErr: true},
		{name: "object", value: map[string]any{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := params.ExtractStringSlice(map[string]any{"labels": tt.value}, "labels")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractStringSlice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("labels (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractMap(t *testing.T) {
	fields := map[string]any{"12345": "High"}
	got, err := params.ExtractMap(map[string]any{"custom_fields": fields}, "custom_fields")
	if err != nil {
		t.Fatalf("ExtractMap() = %v", err)
	}
	if diff := cmp.Diff(fields, got); diff != "" {
		t.Errorf("custom_fields (-want +got):\n%s", diff)
	}
	if got, err := params.ExtractMap(map[string]any{}, "custom_fields"); err != nil || got != nil {
		t.Errorf("absent: got = %v, %v, wanted = nil, nil", got, err)
	}
}
