/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskmanager

import (
	"context"
	"strings"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/chainguard-dev/clog"
)

// dateLayout is Asana's due_on format.
const dateLayout = "2006-01-02"

// Asana is the subset of Client the tools call.
type Asana interface {
	CreateTask(ctx context.Context, req TaskRequest) (*Task, error)
}

var _ Asana = (*Client)(nil)

// Tools composes base callbacks with the Asana callbacks.
type Tools[T any] struct {
	base  T
	Asana Asana
	// Now resolves the default due date. Defaults to time.Now.
	Now func() time.Time
}

// NewTools creates Asana callbacks layered on base.
func NewTools[T any](base T, asana Asana) Tools[T] {
	return Tools[T]{base: base, Asana: asana, Now: time.Now}
}

type toolsProvider[T any] struct {
	base toolcall.ToolProvider[T]
}

// NewToolsProvider adds create_asana_task to the tools of base.
func NewToolsProvider[T any](base toolcall.ToolProvider[T]) toolcall.ToolProvider[Tools[T]] {
	return toolsProvider[T]{base: base}
}

func (p toolsProvider[T]) Tools(cb Tools[T]) map[string]toolcall.Tool {
	tools := p.base.Tools(cb.base)

	now := cb.Now
	if now == nil {
		now = time.Now
	}

	tools["create_asana_task"] = toolcall.Tool{
		Def: toolcall.Definition{
			Name:        "create_asana_task",
			Description: "Create a task, with optional subtasks, in the configured Asana project.",
			Parameters: []toolcall.Parameter{{
				Name:        "task_name",
				Type:        "string",
				Description: "The name of the task",
				Required:    true,
			}, {
				Name:        "due_on",
				Type:        "string",
				Description: "Due date as YYYY-MM-DD, or \"today\" (default: today)",
			}, {
				Name:        "description",
				Type:        "string",
				Description: "Notes describing the task",
			}, {
				Name:        "assignee",
				Type:        "string",
				Description: "Asana user gid or email to assign the task to",
			}, {
				Name:        "dependencies",
				Type:        "array",
				Items:       "string",
				Description: "Gids of tasks this task depends on",
			}, {
				Name:        "custom_fields",
				Type:        "object",
				Description: "Custom field values keyed by custom field gid",
			}, {
				Name:        "subtasks",
				Type:        "array",
				Items:       "string",
				Description: "Names of subtasks to create under the task, in order",
			}},
		},
		Handler: createTaskHandler(cb.Asana, now),
	}

	return tools
}

func createTaskHandler(asana Asana, now func() time.Time) toolcall.Handler {
	return func(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[string]) result.Result {
		log := clog.FromContext(ctx).With("tool", call.Name)

		name, errResp := toolcall.Param[string](call, trace, "task_name")
		if errResp != nil {
			return *errResp
		}
		dueOn, errResp := toolcall.OptionalParam(call, trace, "due_on", "today")
		if errResp != nil {
			return *errResp
		}
		notes, errResp := toolcall.OptionalParam(call, trace, "description", "")
		if errResp != nil {
			return *errResp
		}
		assignee, errResp := toolcall.OptionalParam(call, trace, "assignee", "")
		if errResp != nil {
			return *errResp
		}
		dependencies, errResp := toolcall.StringSliceParam(call, trace, "dependencies")
		if errResp != nil {
			return *errResp
		}
		customFields, errResp := toolcall.MapParam(call, trace, "custom_fields")
		if errResp != nil {
			return *errResp
		}
		subtasks, errResp := toolcall.StringSliceParam(call, trace, "subtasks")
		if errResp != nil {
			return *errResp
		}

		dueOn = strings.TrimSpace(dueOn)
		if dueOn == "" || strings.EqualFold(dueOn, "today") {
			dueOn = now().Format(dateLayout)
		} else if _, err := time.Parse(dateLayout, dueOn); err != nil {
			trace.BadToolCall(call.ID, call.Name, call.Args, err)
			return result.Err(result.KindInvalidArgument, "due_on must be YYYY-MM-DD or \"today\", got %q", dueOn)
		}

		tc := trace.StartToolCall(call.ID, call.Name, call.Args)
		parent, err := asana.CreateTask(ctx, TaskRequest{
			Name:         name,
			DueOn:        dueOn,
			Notes:        notes,
			Assignee:     assignee,
			Dependencies: dependencies,
			CustomFields: customFields,
		})
		if err != nil {
			log.With("error", err).Error("Failed to create task")
			tc.Complete(nil, err)
			return result.FromError(err)
		}
		log = log.With("gid", parent.GID)

		created := make([]map[string]any, 0, len(subtasks))
		var failures []result.Failure
		for _, sub := range subtasks {
			task, err := asana.CreateTask(ctx, TaskRequest{Name: sub, Parent: parent.GID})
			if err != nil {
				log.With("subtask", sub).With("error", err).Error("Failed to create subtask")
				failures = append(failures, result.Failure{Item: sub, Error: err.Error()})
				continue
			}
			created = append(created, taskRecord(task).Fields())
		}

		payload := taskRecord(parent).Fields()
		payload["due_on"] = dueOn
		payload["subtasks"] = created

		res := result.Partial(payload, failures)
		tc.Complete(payload, res.Err())
		log.With("subtasks", len(created)).With("failed", len(failures)).Info("Created task")
		return res
	}
}

func taskRecord(t *Task) result.Record {
	return result.Record{
		ID:    t.GID,
		URL:   t.PermalinkURL,
		State: t.State(),
		Title: t.Name,
	}
}
