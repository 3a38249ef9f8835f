/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package issuemanager

import (
	"context"
	"errors"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/promptbuilder"
	"github.com/chainguard-dev/clog"
)

// FallbackDescription is the pull request body used when none could be
// synthesized.
const FallbackDescription = "could not generate description, default used"

// Describer produces a pull request description for a branch. It never
// fails; it falls back to FallbackDescription instead.
type Describer interface {
	Describe(ctx context.Context, head string) string
}

// CommitLister lists commit messages reachable from a ref.
type CommitLister interface {
	CommitMessages(ctx context.Context, ref string) ([]string, error)
}

const describeSystem = `You write pull request descriptions. Reply with the description only, in
GitHub markdown, without a title.`

const describePrompt = `Write a pull request description for the branch {{branch}}.

Summarize the main changes, list the key features and fixes, and call out
any breaking changes. Base it on these commits, newest first:

{{commits}}`

// Synthesizer writes pull request descriptions from a branch's commit
// history with a single model completion.
type Synthesizer struct {
	commits CommitLister
	model   chatmodel.Model
}

var _ Describer = (*Synthesizer)(nil)

// NewSynthesizer returns a Synthesizer reading commits from commits and
// writing with model.
func NewSynthesizer(commits CommitLister, model chatmodel.Model) *Synthesizer {
	return &Synthesizer{commits: commits, model: model}
}

// Describe returns a description of the commits on head, or
// FallbackDescription when the commits cannot be listed, there are none, or
// the model fails or answers with nothing.
func (s *Synthesizer) Describe(ctx context.Context, head string) string {
	log := clog.FromContext(ctx).With("head", head)

	text, err := s.describe(ctx, head)
	if err != nil {
		log.With("error", err).Warn("Falling back to the default pull request description")
		return FallbackDescription
	}
	return text
}

func (s *Synthesizer) describe(ctx context.Context, head string) (string, error) {
	messages, err := s.commits.CommitMessages(ctx, head)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", errors.New("no commits to describe")
	}

	prompt, err := promptbuilder.MustNewPrompt(describePrompt).
		MustBindText("branch", head).
		BindYAML("commits", messages)
	if err != nil {
		return "", err
	}
	text, err := prompt.Build()
	if err != nil {
		return "", err
	}
	return chatmodel.Complete(ctx, s.model, describeSystem, text)
}
