// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/devdose-tui/internal/orchestrator"
)

// maxStdinQuestion caps a question piped on stdin.
const maxStdinQuestion = 1 << 20

// errNoQuestion is returned when ask has nothing to send.
var errNoQuestion = errors.New("no question given")

type askOptions struct {
	newSession bool
	instant    bool
}

func newAskCmd(rt *state) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the answer.

On a terminal the answer is typed out; press Ctrl+C to stop typing and keep
what has been shown. When stdout is not a terminal the answer is printed at
once. With no arguments the question is read from stdin.

The question and answer are added to the most recent chat.`,
		Example: `  devdose ask "How do I reverse a slice in Go?"
  devdose ask --new "Explain closures"
  git diff | devdose ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), rt.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if opts.newSession {
				a.store.NewSession()
			}
			out := cmd.OutOrStdout()
			typed := !opts.instant && isTerminal(out)
			return ask(cmd.Context(), a.orch, question, out, typed)
		},
	}

	cmd.Flags().BoolVarP(&opts.newSession, "new", "n", false, "start a new chat for this question")
	cmd.Flags().BoolVar(&opts.instant, "no-type", false, "print the answer at once")
	return cmd
}

// readQuestion joins args, or reads stdin when there are none.
func readQuestion(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		return "", errNoQuestion
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
	if err != nil {
		return "", fmt.Errorf("read question: %w", err)
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", errNoQuestion
	}
	return q, nil
}

// ask sends question and writes the answer to out. typed reveals it with
// the typewriter; an interrupt while typing keeps the visible part.
func ask(ctx context.Context, o *orchestrator.Orchestrator, question string, out io.Writer, typed bool) error {
	var (
		answer string
		ok     bool
	)
	if typed {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		w := &revealWriter{out: out}
		answer, ok = o.Ask(ctx, question, w.reveal)
		w.reveal(answer)
	} else {
		answer, ok = o.AskInstant(ctx, question)
		fmt.Fprint(out, answer)
	}
	if !ok {
		return errNoQuestion
	}
	fmt.Fprintln(out)

	if answer == "" {
		if err := o.LastError(); err != nil {
			return fmt.Errorf("no answer: %w", err)
		}
	}
	return nil
}

// revealWriter prints each newly revealed piece of the answer. Every
// visible text extends the previous one.
type revealWriter struct {
	out     io.Writer
	printed int
}

func (w *revealWriter) reveal(visible string) {
	if len(visible) <= w.printed {
		return
	}
	fmt.Fprint(w.out, visible[w.printed:])
	w.printed = len(visible)
}
