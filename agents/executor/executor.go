/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/chatops/agents/agenttrace"
	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"chainguard.dev/chatops/agents/metrics"
	"chainguard.dev/chatops/agents/result"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxIterations is the model-call bound per user turn.
	DefaultMaxIterations = 8
	// DefaultCallTimeout bounds each model and tool call.
	DefaultCallTimeout = 60 * time.Second
)

// ErrToolCallLimit is returned when the model still requests tools after
// the iteration bound is reached.
var ErrToolCallLimit = errors.New("tool-call limit exceeded")

// Reply is the outcome of one dispatch cycle.
type Reply struct {
	// Text is the model's final natural-language answer.
	Text string
	// Iterations is the number of model calls made.
	Iterations int
	// ToolCalls is the number of tool requests answered, including the
	// ones answered with a failure.
	ToolCalls int
}

// Executor runs the tool-dispatch loop against one model and registry.
type Executor struct {
	model         chatmodel.Model
	registry      *toolcall.Registry
	maxIterations int
	callTimeout   time.Duration
	parallelism   int
	genaiMetrics  *metrics.GenAI
	tracer        agenttrace.Tracer[string]
	labels        []attribute.KeyValue
}

// New creates an Executor with the default bounds.
func New(model chatmodel.Model, registry *toolcall.Registry, opts ...Option) (*Executor, error) {
	if model == nil {
		return nil, errors.New("model cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}

	e := &Executor{
		model:         model,
		registry:      registry,
		maxIterations: DefaultMaxIterations,
		callTimeout:   DefaultCallTimeout,
		parallelism:   1,
		genaiMetrics:  metrics.NewGenAI("chainguard.dev/chatops"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Model returns the chat model the executor calls.
func (e *Executor) Model() chatmodel.Model { return e.model }

// Registry returns the tools the executor dispatches to.
func (e *Executor) Registry() *toolcall.Registry { return e.registry }

// Run answers the conversation's latest user turn. Every model response
// that requests tools is appended as an assistant turn, followed by one
// tool-result turn per request, before the model is called again. onChunk,
// when non-nil, receives streamed text from every model call.
//
// Past the iteration bound the outstanding requests are answered with
// limit_exceeded results and ErrToolCallLimit is returned; the
// conversation is left with no unanswered requests either way.
func (e *Executor) Run(ctx context.Context, conv *conversation.Conversation, onChunk chatmodel.StreamFunc) (reply Reply, err error) {
	log := clog.FromContext(ctx)

	trace := e.startTrace(ctx, lastUserText(conv))
	defer func() {
		trace.SetMetadata("iterations", reply.Iterations)
		trace.Complete(reply.Text, err)
		e.genaiMetrics.RecordIterations(ctx, e.model.Name(), reply.Iterations, e.labels...)
	}()

	defs := e.registry.Definitions()
	for {
		resp, err := e.generate(ctx, conv, defs, onChunk)
		reply.Iterations++
		if err != nil {
			return reply, err
		}
		if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
			e.genaiMetrics.RecordTokens(ctx, e.model.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens, e.labels...)
			trace.RecordTokenUsage(e.model.Name(), resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}

		if len(resp.ToolCalls) == 0 {
			reply.Text = resp.Text
			log.With("iterations", reply.Iterations).Info("Dispatch cycle completed")
			return reply, nil
		}

		conv.Append(conversation.Assistant(resp.Text, resp.ToolCalls...))
		reply.ToolCalls += len(resp.ToolCalls)

		if reply.Iterations >= e.maxIterations {
			log.With("iterations", reply.Iterations).
				With("pending", len(resp.ToolCalls)).
				Warn("Tool-call limit reached, refusing outstanding requests")
			for _, call := range resp.ToolCalls {
				trace.BadToolCall(call.ID, call.Name, call.Args, ErrToolCallLimit)
				res := result.Err(result.KindLimitExceeded, "not executed: limit of %d model calls reached", e.maxIterations)
				e.genaiMetrics.RecordToolFailure(ctx, e.model.Name(), call.Name, string(res.Kind), e.labels...)
				conv.Append(conversation.ToolResult(call, res.Render()))
			}
			return reply, ErrToolCallLimit
		}

		for i, res := range e.dispatch(ctx, resp.ToolCalls, trace) {
			conv.Append(conversation.ToolResult(resp.ToolCalls[i], res.Render()))
		}
	}
}

func (e *Executor) startTrace(ctx context.Context, prompt string) *agenttrace.Trace[string] {
	if e.tracer != nil {
		return e.tracer.NewTrace(ctx, prompt)
	}
	return agenttrace.StartTrace[string](ctx, prompt)
}

func (e *Executor) generate(ctx context.Context, conv *conversation.Conversation, defs []toolcall.Definition, onChunk chatmodel.StreamFunc) (*chatmodel.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	resp, err := e.model.Generate(ctx, chatmodel.Request{
		System:  conv.System(),
		Turns:   conv.Turns(),
		Tools:   defs,
		OnChunk: onChunk,
	})
	if err != nil {
		// SDKs do not always wrap the context error.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("calling model %s: %w", e.model.Name(), err)
	}
	return resp, nil
}

// dispatch executes calls and returns their results in emission order.
func (e *Executor) dispatch(ctx context.Context, calls []toolcall.ToolCall, trace *agenttrace.Trace[string]) []result.Result {
	results := make([]result.Result, len(calls))
	if e.parallelism <= 1 || len(calls) == 1 {
		for i, call := range calls {
			results[i] = e.invoke(ctx, call, trace)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = e.invoke(ctx, call, trace)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// invoke resolves and runs one call under the call timeout. It never
// returns without a result: unknown tools, timeouts and cancellations all
// become failure results the model can read.
func (e *Executor) invoke(ctx context.Context, call toolcall.ToolCall, trace *agenttrace.Trace[string]) result.Result {
	log := clog.FromContext(ctx).With("tool", call.Name).With("id", call.ID)

	tool, err := e.registry.Resolve(call.Name)
	if err != nil {
		log.Error("Unknown tool requested")
		trace.BadToolCall(call.ID, call.Name, call.Args, err)
		res := result.Err(result.KindUnknownTool, "%v", err)
		e.genaiMetrics.RecordToolFailure(ctx, e.model.Name(), call.Name, string(res.Kind), e.labels...)
		return res
	}

	log.Info("Executing tool call")
	e.genaiMetrics.RecordToolCall(ctx, e.model.Name(), call.Name, e.labels...)

	cctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	done := make(chan result.Result, 1)
	go func() {
		done <- tool.Handler(cctx, call, trace)
	}()

	var res result.Result
	select {
	case res = <-done:
	case <-cctx.Done():
		res = result.FromError(fmt.Errorf("%s did not finish: %w", call.Name, cctx.Err()))
	}

	if !res.IsOK() {
		log.With("kind", res.Kind).With("detail", res.Detail).Warn("Tool call did not succeed")
		e.genaiMetrics.RecordToolFailure(ctx, e.model.Name(), call.Name, string(res.Kind), e.labels...)
	}
	return res
}

func lastUserText(conv *conversation.Conversation) string {
	turns := conv.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == conversation.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
