/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"strings"
)

// Record holds the fields every created remote object exposes in its
// success payload, whatever service created it.
type Record struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	State string `json:"state"`
	Title string `json:"title"`
}

// Fields returns the record as a payload map so executors can add
// service-specific keys next to the normalized ones.
func (r Record) Fields() map[string]any {
	return map[string]any{
		"id":    r.ID,
		"url":   r.URL,
		"state": r.State,
		"title": r.Title,
	}
}

// ExtractJSON returns the JSON held in text, removing a surrounding
// markdown code fence if the model added one. The first ```json block wins;
// otherwise any bare ``` fence around the whole text is stripped.
func ExtractJSON(text string) string {
	if _, rest, ok := strings.Cut(text, "```json\n"); ok {
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Extract pulls JSON out of text with ExtractJSON and decodes it into T.
func Extract[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return out, err
	}
	return out, nil
}
