// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/devdose-tui/internal/orchestrator"
	"github.com/jeranaias/devdose-tui/internal/storage"
)

// fetchCmd runs the backend call off the loop.
func fetchCmd(o *orchestrator.Orchestrator, req orchestrator.Request, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return answerMsg{resp: o.Fetch(ctx, req)}
	}
}

func typeTickCmd(interval time.Duration, gen uint64) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return typeTickMsg{gen: gen}
	})
}

func copyResetCmd(after time.Duration, token uint64) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return copyResetMsg{token: token}
	})
}

func noticeClearCmd(seq int) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return noticeClearMsg{seq: seq}
	})
}

// watchCmd waits for the next external history change. It returns nil once
// the watcher is closed, which ends the chain.
func watchCmd(w *storage.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return historyChangedMsg{}
	}
}
