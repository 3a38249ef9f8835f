/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package issuemanager

import (
	"context"
	"strconv"
	"strings"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

const (
	// DefaultIssueBody is used when the model gives an issue no body.
	DefaultIssueBody = "No description provided"
	// FallbackBase is the pull request base when the default branch cannot
	// be looked up.
	FallbackBase = "main"
)

// GitHub is the subset of Client the tools call.
type GitHub interface {
	CreateIssue(ctx context.Context, req *github.IssueRequest) (*github.Issue, error)
	CreatePullRequest(ctx context.Context, pr *github.NewPullRequest) (*github.PullRequest, error)
	DefaultBranch(ctx context.Context) (string, error)
}

var _ GitHub = (*Client)(nil)

// Tools composes base callbacks with the GitHub callbacks.
type Tools[T any] struct {
	base      T
	GitHub    GitHub
	Describer Describer
}

// NewTools creates GitHub callbacks layered on base.
func NewTools[T any](base T, gh GitHub, describer Describer) Tools[T] {
	return Tools[T]{base: base, GitHub: gh, Describer: describer}
}

type toolsProvider[T any] struct {
	base toolcall.ToolProvider[T]
}

var _ toolcall.ToolProvider[Tools[toolcall.EmptyTools]] = toolsProvider[toolcall.EmptyTools]{}

// NewToolsProvider adds create_github_issue and create_pull_request to the
// tools of base.
func NewToolsProvider[T any](base toolcall.ToolProvider[T]) toolcall.ToolProvider[Tools[T]] {
	return toolsProvider[T]{base: base}
}

func (p toolsProvider[T]) Tools(cb Tools[T]) map[string]toolcall.Tool {
	tools := p.base.Tools(cb.base)

	tools["create_github_issue"] = toolcall.Tool{
		Def: toolcall.Definition{
			Name:        "create_github_issue",
			Description: "Create an issue in the configured GitHub repository.",
			Parameters: []toolcall.Parameter{{
				Name:        "title",
				Type:        "string",
				Description: "The issue title",
				Required:    true,
			}, {
				Name:        "body",
				Type:        "string",
				Description: "The issue body in markdown",
			}, {
				Name:        "labels",
				Type:        "array",
				Items:       "string",
				Description: "Labels to apply to the issue",
			}, {
				Name:        "assignee",
				Type:        "string",
				Description: "GitHub login to assign the issue to",
			}, {
				Name:        "milestone",
				Type:        "string",
				Description: "Numeric id of the milestone to associate the issue with",
			}},
		},
		Handler: createIssueHandler(cb.GitHub),
	}

	tools["create_pull_request"] = toolcall.Tool{
		Def: toolcall.Definition{
			Name:        "create_pull_request",
			Description: "Open a pull request in the configured GitHub repository. When no body is given one is written from the head branch's commits.",
			Parameters: []toolcall.Parameter{{
				Name:        "title",
				Type:        "string",
				Description: "The pull request title",
				Required:    true,
			}, {
				Name:        "head",
				Type:        "string",
				Description: "The branch containing the changes",
				Required:    true,
			}, {
				Name:        "base",
				Type:        "string",
				Description: "The branch to merge into (default: the repository's default branch)",
			}, {
				Name:        "body",
				Type:        "string",
				Description: "The pull request description in markdown",
			}, {
				Name:        "draft",
				Type:        "boolean",
				Description: "Whether to open the pull request as a draft (default: false)",
			}},
		},
		Handler: createPullRequestHandler(cb.GitHub, cb.Describer),
	}

	return tools
}

func createIssueHandler(gh GitHub) toolcall.Handler {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[string]) result.Result {
		log := clog.FromContext(ctx).With("tool", call.Name)

		title, errResp := toolcall.Param[string](call, trace, "title")
		if errResp != nil {
			return *errResp
		}
		body, errResp := toolcall.OptionalParam(call, trace, "body", DefaultIssueBody)
		if errResp != nil {
			return *errResp
		}
		if strings.TrimSpace(body) == "" {
			body = DefaultIssueBody
		}
		labels, errResp := toolcall.StringSliceParam(call, trace, "labels")
		if errResp != nil {
			return *errResp
		}
		assignee, errResp := toolcall.OptionalParam(call, trace, "assignee", "")
		if errResp != nil {
			return *errResp
		}
		milestone, errResp := toolcall.OptionalParam(call, trace, "milestone", 0)
		if errResp != nil {
			return *errResp
		}

		req := &github.IssueRequest{
			Title: github.Ptr(title),
			Body:  github.Ptr(body),
		}
		if len(labels) > 0 {
			req.Labels = &labels
		}
		if assignee != "" {
			req.Assignee = github.Ptr(assignee)
		}
		if milestone != 0 {
			req.Milestone = github.Ptr(milestone)
		}

		tc := trace.StartToolCall(call.ID, call.Name, call.Args)
		issue, err := gh.CreateIssue(ctx, req)
		if err != nil {
			log.With("error", err).Error("Failed to create issue")
			tc.Complete(nil, err)
			return result.FromError(err)
		}

		payload := issueRecord(issue).Fields()
		payload["number"] = issue.GetNumber()
		payload["labels"] = labelNames(issue.Labels)
		payload["assignee"] = issue.GetAssignee().GetLogin()
		tc.Complete(payload, nil)

		log.With("url", issue.GetHTMLURL()).Info("Created issue")
		return result.Ok(payload)
	}
}

func createPullRequestHandler(gh GitHub, describer Describer) toolcall.Handler {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[string]) result.Result {
		log := clog.FromContext(ctx).With("tool", call.Name)

		title, errResp := toolcall.Param[string](call, trace, "title")
		if errResp != nil {
			return *errResp
		}
		head, errResp := toolcall.Param[string](call, trace, "head")
		if errResp != nil {
			return *errResp
		}
		base, errResp := toolcall.OptionalParam(call, trace, "base", "")
		if errResp != nil {
			return *errResp
		}
		body, errResp := toolcall.OptionalParam(call, trace, "body", "")
		if errResp != nil {
			return *errResp
		}
		draft, errResp := toolcall.OptionalParam(call, trace, "draft", false)
		if errResp != nil {
			return *errResp
		}

		tc := trace.StartToolCall(call.ID, call.Name, call.Args)

		if strings.TrimSpace(base) == "" {
			branch, err := gh.DefaultBranch(ctx)
			if err != nil {
				log.With("error", err).Warn("Default branch lookup failed, using " + FallbackBase)
				branch = FallbackBase
			}
			base = branch
		}
		switch {
		case strings.TrimSpace(body) != "":
		case describer == nil:
			body = FallbackDescription
		default:
			body = describer.Describe(ctx, head)
		}

		pr, err := gh.CreatePullRequest(ctx, &github.NewPullRequest{
			Title: github.Ptr(title),
			Head:  github.Ptr(head),
			Base:  github.Ptr(base),
			Body:  github.Ptr(body),
			Draft: github.Ptr(draft),
		})
		if err != nil {
			log.With("error", err).Error("Failed to create pull request")
			tc.Complete(nil, err)
			return result.FromError(err)
		}

		payload := pullRequestRecord(pr).Fields()
		payload["number"] = pr.GetNumber()
		payload["draft"] = pr.GetDraft()
		payload["head"] = pr.GetHead().GetRef()
		payload["base"] = pr.GetBase().GetRef()
		payload["body"] = pr.GetBody()
		tc.Complete(payload, nil)

		log.With("url", pr.GetHTMLURL()).Info("Created pull request")
		return result.Ok(payload)
	}
}

func issueRecord(issue *github.Issue) result.Record {
	return result.Record{
		ID:    strconv.FormatInt(issue.GetID(), 10),
		URL:   issue.GetHTMLURL(),
		State: issue.GetState(),
		Title: issue.GetTitle(),
	}
}

func pullRequestRecord(pr *github.PullRequest) result.Record {
	return result.Record{
		ID:    strconv.FormatInt(pr.GetID(), 10),
		URL:   pr.GetHTMLURL(),
		State: pr.GetState(),
		Title: pr.GetTitle(),
	}
}

func labelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return names
}
