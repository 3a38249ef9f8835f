/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package issuemanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// commitPageSize is the largest page the commits API serves.
const commitPageSize = 100

// Client talks to one GitHub repository.
type Client struct {
	owner, repo string
	gh          *github.Client
	gql         *githubv4.Client
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at a GitHub Enterprise server, e.g.
// "https://github.example.com". The REST and GraphQL endpoints are derived
// from it.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) error {
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}
		c.baseURL = baseURL
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

// NewClient returns a client for repository ("owner/name") authenticated
// with a personal access token.
func NewClient(ctx context.Context, token, repository string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token cannot be empty")
	}
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	var cfg clientConfig
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if cfg.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.httpClient)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	c := &Client{owner: owner, repo: repo, gh: github.NewClient(hc)}
	if cfg.baseURL == "" {
		c.gql = githubv4.NewClient(hc)
		return c, nil
	}

	c.gh, err = c.gh.WithEnterpriseURLs(cfg.baseURL, cfg.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing GitHub base URL: %w", err)
	}
	gqlURL := *c.gh.BaseURL
	gqlURL.Path = "/api/graphql"
	c.gql = githubv4.NewEnterpriseClient(gqlURL.String(), hc)
	return c, nil
}

// SplitRepository parses "owner/name".
func SplitRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository %q must have the form owner/name", repository)
	}
	return owner, repo, nil
}

// Repository returns "owner/name".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// CreateIssue opens an issue in the repository.
func (c *Client) CreateIssue(ctx context.Context, req *github.IssueRequest) (*github.Issue, error) {
	issue, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return nil, fmt.Errorf("creating issue in %s: %w", c.Repository(), err)
	}
	return issue, nil
}

// CreatePullRequest opens a pull request in the repository.
func (c *Client) CreatePullRequest(ctx context.Context, pr *github.NewPullRequest) (*github.PullRequest, error) {
	created, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, pr)
	if err != nil {
		return nil, fmt.Errorf("creating pull request in %s: %w", c.Repository(), err)
	}
	return created, nil
}

// DefaultBranch looks up the repository's default branch.
func (c *Client) DefaultBranch(ctx context.Context) (string, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return "", fmt.Errorf("getting repository %s: %w", c.Repository(), err)
	}
	if repo.GetDefaultBranch() == "" {
		return "", fmt.Errorf("repository %s reports no default branch", c.Repository())
	}
	return repo.GetDefaultBranch(), nil
}

// CommitMessages returns the messages of the newest commits reachable from
// ref, newest first. Only the first page is read.
func (c *Client) CommitMessages(ctx context.Context, ref string) ([]string, error) {
	commits, _, err := c.gh.Repositories.ListCommits(ctx, c.owner, c.repo, &github.CommitsListOptions{
		SHA:         ref,
		ListOptions: github.ListOptions{PerPage: commitPageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits on %s: %w", ref, err)
	}
	messages := make([]string, 0, len(commits))
	for _, commit := range commits {
		messages = append(messages, commit.GetCommit().GetMessage())
	}
	return messages, nil
}

// Identity is the authenticated user and the repository they will act on.
type Identity struct {
	Login         string
	Repository    string
	DefaultBranch string
}

// Verify checks the token and repository in one GraphQL round trip and logs
// who the agent will act as.
func (c *Client) Verify(ctx context.Context) (*Identity, error) {
	var query struct {
		Viewer struct {
			Login string
		}
		Repository struct {
			NameWithOwner    string
			DefaultBranchRef struct {
				Name string
			}
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	variables := map[string]any{
		"owner": githubv4.String(c.owner),
		"repo":  githubv4.String(c.repo),
	}
	if err := c.gql.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("verifying GitHub access to %s: %w", c.Repository(), err)
	}

	id := &Identity{
		Login:         query.Viewer.Login,
		Repository:    query.Repository.NameWithOwner,
		DefaultBranch: query.Repository.DefaultBranchRef.Name,
	}
	clog.FromContext(ctx).With("login", id.Login).
		With("repository", id.Repository).
		Info("Connected to GitHub")
	return id, nil
}
