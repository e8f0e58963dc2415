// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/devdose-tui/internal/answer"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
	"github.com/jeranaias/devdose-tui/internal/util"
)

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlighter colors code with chroma.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter picks a chroma style by name and a formatter that suits
// the terminal's color profile.
func NewHighlighter(styleName string, profile termenv.Profile) *Highlighter {
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	var formatter chroma.Formatter
	switch profile {
	case termenv.TrueColor:
		formatter = formatters.Get("terminal16m")
	case termenv.ANSI256:
		formatter = formatters.Get("terminal256")
	case termenv.ANSI:
		formatter = formatters.Get("terminal16")
	default:
		formatter = formatters.Get("noop")
	}
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Highlighter{style: style, formatter: formatter}
}

// Highlight returns code with ANSI colors. Unknown languages are guessed
// from the code; failures return code unchanged.
func (h *Highlighter) Highlight(code, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// =============================================================================
// CODE BLOCK
// =============================================================================

// CodeBlock is one fenced block ready to draw.
type CodeBlock struct {
	Number   int // copy shortcut shown in the badge
	Language string
	Code     string
	Copied   bool
	Width    int
}

// Badge returns the copy button text.
func (c CodeBlock) Badge(theme *styles.Theme) string {
	label := answer.LabelCopy
	style := theme.CopyButton
	if c.Copied {
		label = answer.LabelCopied
		style = theme.CopiedMark
	}
	if c.Number > 0 {
		label = "[" + strconv.Itoa(c.Number) + "] " + label
	}
	return style.Render(label)
}

// Render draws the block with its language and copy badge on top.
func (c CodeBlock) Render(theme *styles.Theme, hl *Highlighter) string {
	width := c.Width
	if width < 24 {
		width = 24
	}
	inner := width - theme.CodeBlock.GetHorizontalFrameSize()

	lang := c.Language
	if lang == "" {
		lang = "code"
	}
	badge := c.Badge(theme)
	gap := inner - lipgloss.Width(lang) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	top := theme.CodeLang.Render(util.FitWidth(lang, inner/2)) + strings.Repeat(" ", gap) + badge

	body := c.Code
	if hl != nil {
		body = hl.Highlight(c.Code, c.Language)
	}

	return theme.CodeBlock.Width(width - theme.CodeBlock.GetHorizontalBorderSize()).
		Render(top + "\n" + body)
}
