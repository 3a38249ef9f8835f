/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package terminal runs a chat session on a line-oriented console.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	// Prompt is printed before every line of input.
	Prompt = "Chat with AI (q to quit): "
	// QuitCommand ends the loop.
	QuitCommand = "q"
	// ToolsCommand lists the registered tools.
	ToolsCommand = "/tools"
)

// Sender is the session the terminal feeds.
type Sender interface {
	Send(ctx context.Context, text string, onChunk chatmodel.StreamFunc) (string, error)
}

// Terminal reads user lines and prints replies.
type Terminal struct {
	sender Sender
	in     io.Reader
	out    io.Writer
	tools  []toolcall.Definition
	stream bool

	aiLabel    lipgloss.Style
	errorLabel lipgloss.Style
}

// Option configures a Terminal.
type Option func(*Terminal) error

// WithInput sets where lines are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(t *Terminal) error {
		if r == nil {
			return errors.New("input cannot be nil")
		}
		t.in = r
		return nil
	}
}

// WithOutput sets where prompts and replies are written. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(t *Terminal) error {
		if w == nil {
			return errors.New("output cannot be nil")
		}
		t.out = w
		return nil
	}
}

// WithTools sets the definitions listed by /tools.
func WithTools(defs []toolcall.Definition) Option {
	return func(t *Terminal) error {
		t.tools = defs
		return nil
	}
}

// WithStreaming prints reply text as it arrives.
func WithStreaming(stream bool) Option {
	return func(t *Terminal) error {
		t.stream = stream
		return nil
	}
}

// New creates a Terminal for sender.
func New(sender Sender, opts ...Option) (*Terminal, error) {
	if sender == nil {
		return nil, errors.New("sender cannot be nil")
	}
	t := &Terminal{sender: sender, in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Styles follow the output's color support; plain writers get plain text.
	r := lipgloss.NewRenderer(t.out)
	t.aiLabel = r.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	t.errorLabel = r.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	return t, nil
}

// Run reads lines until the user quits, input ends or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	log := clog.FromContext(ctx)
	scanner := bufio.NewScanner(t.in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(t.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(t.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case QuitCommand:
			return nil
		case ToolsCommand:
			if err := t.printTools(); err != nil {
				log.With("error", err).Warn("Failed to render tool table")
			}
			continue
		}

		t.reply(ctx, line)
	}
}

func (t *Terminal) reply(ctx context.Context, line string) {
	log := clog.FromContext(ctx)

	var onChunk chatmodel.StreamFunc
	streamed := false
	if t.stream {
		onChunk = func(chunk string) {
			if !streamed {
				fmt.Fprint(t.out, t.aiLabel.Render("AI:")+" ")
				streamed = true
			}
			fmt.Fprint(t.out, chunk)
		}
	}

	text, err := t.sender.Send(ctx, line, onChunk)
	if err != nil {
		log.With("error", err).Debug("Reply ended with an error")
	}
	switch {
	case streamed && err == nil:
		fmt.Fprintln(t.out)
	case streamed:
		fmt.Fprintln(t.out)
		fmt.Fprintln(t.out, t.errorLabel.Render("AI:"), text)
	case err != nil:
		fmt.Fprintln(t.out, t.errorLabel.Render("AI:"), text)
	default:
		fmt.Fprintln(t.out, t.aiLabel.Render("AI:"), text)
	}
	fmt.Fprintln(t.out)
}

func (t *Terminal) printTools() error {
	if len(t.tools) == 0 {
		_, err := fmt.Fprintln(t.out, "No tools are registered.")
		return err
	}

	table := tablewriter.NewTable(t.out,
		tablewriter.WithHeader([]string{"Tool", "Required", "Description"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
	for _, def := range t.tools {
		var required []string
		for _, p := range def.Parameters {
			if p.Required {
				required = append(required, p.Name)
			}
		}
		if err := table.Append([]string{def.Name, strings.Join(required, ", "), def.Description}); err != nil {
			return err
		}
	}
	return table.Render()
}
