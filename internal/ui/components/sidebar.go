// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
	"github.com/jeranaias/devdose-tui/internal/util"
)

// Sidebar labels.
const (
	SidebarTitle     = "History"
	ActionNewChat    = "+ New Chat"
	ActionClearAll   = "🗑 Clear All Chats"
	UntitledSession  = "New Chat"
	NoMessagesYet    = "No messages yet..."
	previewRuneCount = 40
)

// SidebarRow is what the cursor sits on.
type SidebarRow int

const (
	RowNewChat SidebarRow = iota
	RowClearAll
	RowSession
)

// Sidebar lists the non-empty sessions under the two actions.
type Sidebar struct {
	Entries []session.Entry
	Active  int // collection index of the open session
	Cursor  int // 0 and 1 are the actions, 2+ the entries
	Focused bool
	Width   int
	Height  int
	theme   *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, Width: 32}
}

// SetEntries replaces the history and keeps the cursor in range.
func (s *Sidebar) SetEntries(entries []session.Entry, active int) {
	s.Entries = entries
	s.Active = active
	s.clamp()
}

func (s *Sidebar) rows() int { return 2 + len(s.Entries) }

func (s *Sidebar) clamp() {
	if s.Cursor >= s.rows() {
		s.Cursor = s.rows() - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// MoveUp moves the cursor one row up.
func (s *Sidebar) MoveUp() {
	s.Cursor--
	s.clamp()
}

// MoveDown moves the cursor one row down.
func (s *Sidebar) MoveDown() {
	s.Cursor++
	s.clamp()
}

// Selected returns the row under the cursor and, for a session row, the
// collection index it opens.
func (s *Sidebar) Selected() (SidebarRow, int) {
	switch {
	case s.Cursor == 0:
		return RowNewChat, -1
	case s.Cursor == 1:
		return RowClearAll, -1
	default:
		return RowSession, s.Entries[s.Cursor-2].Index
	}
}

// EntryTitle is the first question of a session, or "New Chat".
func EntryTitle(e session.Entry) string {
	first := e.Session.First()
	if strings.TrimSpace(first.Question) == "" {
		return UntitledSession
	}
	return util.OneLine(first.Question)
}

// EntryPreview is the first 40 characters of the first answer, or a
// placeholder while there is none.
func EntryPreview(e session.Entry) string {
	first := e.Session.First()
	if first.Answer == "" {
		return NoMessagesYet
	}
	return util.OneLine(util.PrefixRunes(first.Answer, previewRuneCount))
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	t := s.theme
	width := s.Width
	if width < 16 {
		width = 16
	}
	inner := width - t.Sidebar.GetHorizontalFrameSize()
	itemWidth := inner - t.SidebarItem.GetHorizontalFrameSize()

	var b strings.Builder
	b.WriteString(t.SidebarTitle.Render(SidebarTitle))
	b.WriteString("\n")

	action := func(row int, label string, style func() string) {
		if s.Focused && s.Cursor == row {
			b.WriteString(t.SidebarItemSelected.Width(inner).Render(label))
		} else {
			b.WriteString(style())
		}
		b.WriteString("\n")
	}
	action(0, ActionNewChat, func() string { return t.SidebarItem.Inherit(t.SidebarAction).Render(ActionNewChat) })
	action(1, ActionClearAll, func() string { return t.SidebarItem.Inherit(t.SidebarDanger).Render(ActionClearAll) })
	b.WriteString("\n")

	for i, e := range s.Entries {
		title := util.FitWidth(EntryTitle(e), itemWidth)
		preview := util.FitWidth(EntryPreview(e), itemWidth)

		style := t.SidebarItem
		switch {
		case s.Focused && s.Cursor == i+2:
			style = t.SidebarItemSelected
		case e.Index == s.Active:
			style = t.SidebarItemActive
		}
		b.WriteString(style.Width(inner).Render(title))
		b.WriteString("\n")
		b.WriteString(t.SidebarPreview.Render(preview))
		b.WriteString("\n")
	}

	out := t.Sidebar.Width(width - t.Sidebar.GetHorizontalBorderSize())
	if s.Height > 0 {
		out = out.Height(s.Height).MaxHeight(s.Height)
	}
	return out.Render(strings.TrimRight(b.String(), "\n"))
}
