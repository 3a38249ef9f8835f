/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Asana REST API root.
const DefaultBaseURL = "https://app.asana.com/api/1.0"

// Client creates tasks in one Asana project.
type Client struct {
	baseURL   string
	projectID string
	hc        *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) error {
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithHTTPClient sets the transport the token source wraps.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		c.httpClient = hc
		return nil
	}
}

// NewClient returns a client authenticated with a personal access token
// that adds new tasks to projectID.
func NewClient(ctx context.Context, token, projectID string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("Asana access token cannot be empty")
	}
	if projectID == "" {
		return nil, errors.New("Asana project id cannot be empty")
	}

	cfg := clientConfig{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if cfg.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.httpClient)
	}

	return &Client{
		baseURL:   cfg.baseURL,
		projectID: projectID,
		hc:        oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}, nil
}

// ProjectID returns the project new tasks are added to.
func (c *Client) ProjectID() string { return c.projectID }

// TaskRequest is the body of a task creation.
type TaskRequest struct {
	Name         string         `json:"name"`
	DueOn        string         `json:"due_on,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Assignee     string         `json:"assignee,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	Parent       string         `json:"parent,omitempty"`
	Projects     []string       `json:"projects,omitempty"`
}

// Task is the subset of an Asana task the tools report.
type Task struct {
	GID          string `json:"gid"`
	Name         string `json:"name"`
	PermalinkURL string `json:"permalink_url"`
	Completed    bool   `json:"completed"`
	DueOn        string `json:"due_on"`
}

// State renders Completed the way the other services name states.
func (t *Task) State() string {
	if t.Completed {
		return "completed"
	}
	return "incomplete"
}

// User is the authenticated Asana user.
type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// APIError is a non-2xx answer from Asana.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("asana: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("asana: HTTP %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// CreateTask creates a task in the client's project. A task with Parent set
// becomes a subtask of it.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (*Task, error) {
	if len(req.Projects) == 0 {
		req.Projects = []string{c.projectID}
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, fmt.Errorf("creating task %q: %w", req.Name, err)
	}
	return &task, nil
}

// Me returns the user the token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, fmt.Errorf("verifying Asana access: %w", err)
	}
	return &user, nil
}

// do sends body wrapped in Asana's {"data": ...} envelope and decodes the
// envelope of the response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(map[string]any{"data": body})
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if json.Unmarshal(raw, &env) == nil {
			for _, e := range env.Errors {
				apiErr.Messages = append(apiErr.Messages, e.Message)
			}
		}
		return apiErr
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
