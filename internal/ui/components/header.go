// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/devdose-tui/internal/ui/styles"
)

// AppTitle is shown centered in the header.
const AppTitle = "DevDose AI"

// Header is the title bar.
type Header struct {
	Title       string
	Backend     string
	Model       string
	SidebarOpen bool
	Width       int
	theme       *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: AppTitle, Width: 80, theme: theme}
}

// View renders the header across the full width.
func (h *Header) View() string {
	t := h.theme
	width := h.Width
	if width < 20 {
		width = 20
	}
	inner := width - t.Header.GetHorizontalFrameSize()

	toggle := "☰"
	if h.SidebarOpen {
		toggle = "✕"
	}
	left := t.HeaderHint.Render(toggle + " ctrl+b")

	var meta []string
	if h.Backend != "" {
		meta = append(meta, h.Backend)
	}
	if h.Model != "" {
		meta = append(meta, h.Model)
	}
	right := t.HeaderHint.Render(strings.Join(meta, " · "))

	title := t.HeaderTitle.Render(h.Title)
	center := lipgloss.PlaceHorizontal(inner-lipgloss.Width(left)-lipgloss.Width(right), lipgloss.Center, title)

	return t.Header.Width(width).Render(left + center + right)
}
