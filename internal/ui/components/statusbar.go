// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/devdose-tui/internal/ui/styles"
	"github.com/jeranaias/devdose-tui/internal/util"
)

// Status is what the assistant is doing.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusTyping
)

// String returns the display text for the status.
func (s Status) String() string {
	switch s {
	case StatusThinking:
		return "Thinking…"
	case StatusTyping:
		return "Typing…"
	default:
		return "Ready"
	}
}

// StatusBar is the bottom line of the screen.
type StatusBar struct {
	Status   Status
	Progress string // e.g. "120/480" while typing
	Hints    string // rendered short help
	Err      string // last request error, when surfaced
	Notice   string // transient message such as "history reloaded"
	Width    int
	theme    *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme
	width := s.Width
	if width < 20 {
		width = 20
	}
	inner := width - t.StatusBar.GetHorizontalFrameSize()

	left := t.StatusKey.Render(s.Status.String())
	if s.Progress != "" {
		left += " " + s.Progress
	}
	switch {
	case s.Err != "":
		left += "  " + t.StatusErr.Render(util.FitWidth(util.OneLine(s.Err), inner/2))
	case s.Notice != "":
		left += "  " + util.FitWidth(s.Notice, inner/2)
	}

	right := s.Hints
	room := inner - lipgloss.Width(left) - 1
	if lipgloss.Width(right) > room {
		right = ""
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return t.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
