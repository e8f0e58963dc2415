// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles holds the palette and lipgloss styles for the devdose TUI.

Every color is a lipgloss.AdaptiveColor so the same theme reads on light
and dark terminals.

# Palette (colors.go)

	Accent   - headings, the assistant label, selections
	Brand    - the DevDose title, the user label, key hints
	Success  - the "Copied!" acknowledgment
	Danger   - surfaced request errors, Clear All
	Warning  - the thinking indicator

# Theme (theme.go)

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	header := theme.Header.Width(width).Render("DevDose AI")

NewTheme detects the terminal once with termenv; CodeStyle picks a chroma
style that suits the detected background.
*/
package styles
