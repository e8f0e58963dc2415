// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/devdose-tui/internal/answer"
	"github.com/jeranaias/devdose-tui/internal/config"
	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/ui/components"
)

const chatPrompt = "devdose> "

const chatHelp = `Commands:
  /new        start a new chat
  /clear      delete every chat
  /history    list saved chats
  /open N     switch to chat N from /history
  /copy N     copy code block N of the last answer
  /help       show this help
  /quit       leave (Ctrl+D works too)

Ctrl+C while an answer is typing stops it and keeps what was shown.`

// errQuit ends the REPL.
var errQuit = errors.New("quit")

func newChatCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode with input history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), rt.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			input := NewChatCLI()
			defer input.Close()

			repl := &chatREPL{
				app:    a,
				out:    cmd.OutOrStdout(),
				copies: answer.NewCopyTracker(answer.SystemClipboard{}),
				typed:  isTerminal(cmd.OutOrStdout()),
			}
			return repl.run(cmd.Context(), input)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads its history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-empty lines join the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// lineReader is the part of ChatCLI the REPL uses.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

type chatREPL struct {
	app    *app
	out    io.Writer
	copies *answer.CopyTracker
	typed  bool

	// entries is the listing /open refers to.
	entries []session.Entry
}

func (r *chatREPL) run(ctx context.Context, in lineReader) error {
	fmt.Fprintln(r.out, TitleStyle.Render(components.AppTitle))
	fmt.Fprintln(r.out, DimStyle.Render("Type a question, or /help for commands."))

	for {
		input, err := in.ReadInput(PromptStyle.Render(chatPrompt))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or a closed stdin.
			fmt.Fprintln(r.out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			err := r.command(input)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(r.out, ErrorStyle.Render("[Error]"), err)
			}
			continue
		}

		if err := ask(ctx, r.app.orch, input, r.out, r.typed); err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render("[Error]"), err)
		}
	}
}

// command runs one slash command.
func (r *chatREPL) command(input string) error {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/?":
		fmt.Fprintln(r.out, chatHelp)

	case "/new":
		r.app.store.NewSession()
		fmt.Fprintln(r.out, SuccessStyle.Render("Started a new chat."))

	case "/clear":
		r.app.store.ClearAll()
		r.entries = nil
		fmt.Fprintln(r.out, SuccessStyle.Render("All chats deleted."))

	case "/history":
		r.entries = r.app.store.History()
		printHistory(r.out, r.entries, r.app.store.Active())

	case "/open":
		n, err := numberArg(args, len(r.entries))
		if err != nil {
			return fmt.Errorf("/open: %w (run /history first)", err)
		}
		e := r.entries[n-1]
		if !r.app.store.Select(e.Index) {
			return fmt.Errorf("/open: chat %d no longer exists", n)
		}
		if sess, ok := r.app.store.ActiveSession(); ok {
			printSession(r.out, sess)
		}

	case "/copy":
		return r.copyBlock(args)

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
	return nil
}

// copyBlock copies code block N of the active session's last answer.
func (r *chatREPL) copyBlock(args []string) error {
	sess, ok := r.app.store.ActiveSession()
	if !ok || sess.IsEmpty() {
		return errors.New("/copy: nothing to copy yet")
	}
	blocks := answer.CodeBlocks(answer.Render(sess.Last().Answer))
	n, err := numberArg(args, len(blocks))
	if err != nil {
		return fmt.Errorf("/copy: %w", err)
	}

	key := answer.Key{Session: sess.ID, Turn: len(sess.Turns) - 1, Block: n - 1}
	r.copies.Copy(key, blocks[n-1].Copy())
	log.Debug().Int("block", n).Msg("code block copied")
	fmt.Fprintln(r.out, SuccessStyle.Render(answer.LabelCopied))
	return nil
}

// numberArg parses a 1-based index no larger than limit.
func numberArg(args []string, limit int) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("%q is not between 1 and %d", args[0], limit)
	}
	return n, nil
}
