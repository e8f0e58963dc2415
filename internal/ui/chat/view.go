// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/ui/components"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
)

const (
	minSidebarWidth = 20
	emptyChatHint   = "Ask a coding question to get started."
)

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes every component for the current terminal.
func (m *Model) layout() {
	m.header.Width = m.width
	m.header.SidebarOpen = m.sidebarOpen
	m.statusBar.Width = m.width
	m.help.Width = m.width

	m.input.SetWidth(max(m.width-m.theme.Input.GetHorizontalFrameSize(), 10))

	used := lipgloss.Height(m.header.View()) +
		m.input.Height() + m.theme.Input.GetVerticalFrameSize() +
		1 // status bar
	if m.showHelp {
		used += lipgloss.Height(m.help.View(m.keyMap))
	}
	body := max(m.height-used, 3)

	sidebarW := m.sidebarWidth()
	m.sidebar.Height = body
	m.sidebar.Width = sidebarW

	m.viewport.Width = max(m.width-sidebarW, 0)
	m.viewport.Height = body
	m.answers.Width = max(m.viewport.Width-m.theme.AssistantBubble.GetHorizontalFrameSize()-2, 10)
}

// sidebarWidth is 0 when the sidebar is closed. Narrow terminals give it
// the whole body.
func (m *Model) sidebarWidth() int {
	if !m.sidebarOpen {
		return 0
	}
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return m.width
	}
	w := m.cfg.UI.SidebarWidth
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	if w > m.width/2 {
		w = m.width / 2
	}
	return w
}

// =============================================================================
// CONTENT
// =============================================================================

// refresh rebuilds the sidebar, the conversation and the status bar from
// the store and the orchestrator. bottom scrolls the conversation to its
// end.
func (m *Model) refresh(bottom bool) {
	m.sidebar.SetEntries(m.store.History(), m.store.Active())
	m.header.SidebarOpen = m.sidebarOpen

	sess, _ := m.store.ActiveSession()
	m.viewport.SetContent(m.conversation(sess))
	if bottom {
		m.viewport.GotoBottom()
	}

	m.updateStatus()
}

func (m *Model) conversation(sess model.Session) string {
	m.codeRefs = nil
	t := m.theme

	if sess.IsEmpty() {
		return t.Placeholder.Render(emptyChatHint)
	}

	current := m.orch.Current()
	pending := current.SessionID == sess.ID && m.orch.Busy()

	var b strings.Builder
	next := 1
	for i, turn := range sess.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(t.UserBubble.Render(lipgloss.NewStyle().Width(m.answers.Width).Render(turn.Question)))
		b.WriteString("\n")

		last := i == len(sess.Turns)-1
		switch {
		case last && pending && m.orch.Typing():
			b.WriteString(m.assistant(m.typingView(sess.ID, i, &next)))
		case last && pending:
			b.WriteString(m.thinkingView())
		case turn.Answer != "":
			body, refs := m.answers.Render(sess.ID, i, turn.Answer, next, m.copies.Copied)
			m.codeRefs = append(m.codeRefs, refs...)
			next += len(refs)
			b.WriteString(m.assistant(body))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// typingView renders the revealed part of the answer with a cursor. Code
// blocks closed so far are already copyable.
func (m *Model) typingView(session string, turn int, next *int) string {
	body, refs := m.answers.Render(session, turn, m.orch.Visible(), *next, m.copies.Copied)
	m.codeRefs = append(m.codeRefs, refs...)
	*next += len(refs)
	return body + m.theme.Cursor.Render("▌")
}

func (m *Model) thinkingView() string {
	return m.theme.AssistantLabel.Render(components.AppTitle) + "\n" +
		m.spinner.View() + " " + m.theme.ThinkingText.Render(components.StatusThinking.String())
}

func (m *Model) assistant(body string) string {
	return m.theme.AssistantLabel.Render(components.AppTitle) + "\n" +
		m.theme.AssistantBubble.Render(body)
}

func (m *Model) updateStatus() {
	sb := m.statusBar
	sb.Progress = ""
	switch {
	case m.orch.Typing():
		sb.Status = components.StatusTyping
		revealed, total := m.orch.Progress()
		sb.Progress = fmt.Sprintf("%d/%d", revealed, total)
	case m.orch.Loading():
		sb.Status = components.StatusThinking
	default:
		sb.Status = components.StatusReady
	}

	sb.Err = ""
	if m.cfg.UI.ShowErrors {
		if err := m.orch.LastError(); err != nil {
			sb.Err = err.Error()
		}
	}
	sb.Notice = m.notice

	if m.showHelp {
		sb.Hints = ""
	} else {
		sb.Hints = m.help.ShortHelpView(m.keyMap.ShortHelp())
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.updateStatus()

	var body string
	switch {
	case m.sidebarOpen && m.theme.GetLayoutMode() == styles.LayoutNarrow:
		body = m.sidebar.View()
	case m.sidebarOpen:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.viewport.View())
	default:
		body = m.viewport.View()
	}

	parts := []string{
		m.header.View(),
		body,
		m.theme.Input.Width(m.width).Render(m.input.View()),
		m.statusBar.View(),
	}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keyMap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
