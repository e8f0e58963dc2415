// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/devdose-tui/internal/ui/chat"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
)

func newTUICmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Start the chat UI (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{logToFile: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, rt)
		},
	}
}

// runTUI runs the Bubble Tea program until the user quits.
func runTUI(cmd *cobra.Command, rt *state) error {
	a, err := openApp(cmd.Context(), rt.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	watcher := a.watch()
	if watcher != nil {
		defer watcher.Close()
	}

	m := chat.New(chat.Options{
		Config:       rt.cfg,
		Theme:        styles.NewTheme(),
		Store:        a.store,
		Orchestrator: a.orch,
		Watcher:      watcher,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI: %w", err)
	}

	log.Info().Int("sessions", a.store.Len()).Msg("chat UI closed")
	return nil
}
