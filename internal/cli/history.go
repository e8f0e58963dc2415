// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/devdose-tui/internal/export"
	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/ui/components"
	"github.com/jeranaias/devdose-tui/internal/util"
)

func newHistoryCmd(rt *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"sessions"},
		Short:   "Manage saved chats",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return historyList(cmd, rt)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List saved chats, newest first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return historyList(cmd, rt)
			},
		},
		&cobra.Command{
			Use:   "show N",
			Short: "Print chat N from the list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return historyShow(cmd, rt, args[0])
			},
		},
		newHistoryClearCmd(rt),
		newHistoryExportCmd(rt),
		newHistoryImportCmd(rt),
	)
	return cmd
}

func historyList(cmd *cobra.Command, rt *state) error {
	kv, store, err := openStore(rt.cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	printHistory(cmd.OutOrStdout(), store.History(), store.Active())
	return nil
}

func historyShow(cmd *cobra.Command, rt *state, arg string) error {
	kv, store, err := openStore(rt.cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	entries := store.History()
	n, err := numberArg([]string{arg}, len(entries))
	if err != nil {
		return err
	}
	printSession(cmd.OutOrStdout(), entries[n-1].Session)
	return nil
}

// =============================================================================
// CLEAR
// =============================================================================

func newHistoryClearCmd(rt *state) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete all saved chats?") {
				fmt.Fprintln(cmd.OutOrStdout(), DimStyle.Render("Nothing deleted."))
				return nil
			}

			kv, store, err := openStore(rt.cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			n := store.Len()
			store.ClearAll()
			log.Info().Int("sessions", n).Msg("chat history cleared")
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("All chats deleted."))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on out and reads the reply from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

func newHistoryExportCmd(rt *state) *cobra.Command {
	var (
		format       string
		output       string
		dir          string
		includeEmpty bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved chats as json, markdown or yaml",
		Example: `  devdose history export > history.json
  devdose history export --format markdown -o chats.md
  devdose history export --format yaml --dir ./backups`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.IncludeEmpty = includeEmpty
			exp, err := export.New(f, opts)
			if err != nil {
				return err
			}

			kv, store, err := openStore(rt.cfg)
			if err != nil {
				return err
			}
			defer kv.Close()
			sessions := store.Sessions()

			if dir != "" {
				opts.OutputDir = dir
				path, err := export.ExportToFile(sessions, exp, opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render("Exported to"), path)
				return nil
			}

			data, err := exp.Export(sessions)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), SuccessStyle.Render("Exported to"), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "json, markdown or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().StringVar(&dir, "dir", "", "write a timestamped file into this directory")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "keep chats with no messages")
	return cmd
}

func newHistoryImportCmd(rt *state) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import chats exported by devdose or the browser client",
		Long: `Import chats from a JSON or YAML export.

JSON is the [[{"q": ..., "a": ...}]] layout devdose stores, which is also
what the browser client keeps under localStorage "chatSessions". Imported
chats go before the existing ones unless --replace is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := export.ImportFile(args[0])
			if err != nil {
				return err
			}

			kv, store, err := openStore(rt.cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			next := imported
			if !replace {
				next = export.Merge(store.Sessions(), imported)
			}
			store.Replace(next)

			log.Info().Int("imported", len(imported)).Bool("replace", replace).Msg("chat history imported")
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d chats (%d total)\n",
				SuccessStyle.Render("Imported"), imported.NonEmpty(), store.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the existing history instead of merging")
	return cmd
}

// =============================================================================
// PRINTING
// =============================================================================

// printHistory lists entries numbered from 1. The active chat is starred.
func printHistory(out io.Writer, entries []session.Entry, active int) {
	if len(entries) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No saved chats."))
		return
	}

	titleWidth := terminalWidth(out) - 12
	for i, e := range entries {
		marker := " "
		if e.Index == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s %s\n",
			marker,
			LabelStyle.Render(strconv.Itoa(i+1)+"."),
			util.FitWidth(components.EntryTitle(e), titleWidth))
		fmt.Fprintf(out, "     %s\n", DimStyle.Render(util.FitWidth(components.EntryPreview(e), titleWidth)))
	}
}

// printSession writes every turn of sess.
func printSession(out io.Writer, sess model.Session) {
	width := terminalWidth(out)
	for i, turn := range sess.Turns {
		if i > 0 {
			fmt.Fprintln(out, RenderSeparator(width))
		}
		fmt.Fprintln(out, PromptStyle.Render("You:"), turn.Question)
		fmt.Fprintln(out, AnswerLabelStyle.Render(components.AppTitle+":"))
		if turn.Answer == "" {
			fmt.Fprintln(out, DimStyle.Render("(no answer)"))
		} else {
			fmt.Fprintln(out, turn.Answer)
		}
	}
}
