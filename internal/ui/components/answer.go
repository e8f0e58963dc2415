// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/devdose-tui/internal/answer"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
)

// Prose renderer names accepted by NewProseRenderer.
const (
	ProseClean   = "clean"
	ProseGlamour = "glamour"
)

// ProseRenderer lays out an already cleaned prose block.
type ProseRenderer interface {
	Render(text string, width int) string
}

// NewProseRenderer returns the renderer named by name, falling back to
// the clean renderer.
func NewProseRenderer(name string, theme *styles.Theme) ProseRenderer {
	if name == ProseGlamour {
		return &glamourProse{cache: map[int]*glamour.TermRenderer{}}
	}
	return cleanProse{style: theme.Prose}
}

// cleanProse word-wraps the emoji-cleaned text as is.
type cleanProse struct {
	style lipgloss.Style
}

func (p cleanProse) Render(text string, width int) string {
	if width <= 0 {
		return p.style.Render(text)
	}
	return p.style.Width(width).Render(text)
}

// glamourProse renders inline markdown (links, `code`, tables) that
// survives cleanup.
type glamourProse struct {
	cache map[int]*glamour.TermRenderer
}

func (p *glamourProse) Render(text string, width int) string {
	r, ok := p.cache[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Warn().Err(err).Msg("glamour unavailable, using plain prose")
			return text
		}
		p.cache[width] = r
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// ANSWER VIEW
// =============================================================================

// AnswerView renders answers block by block.
type AnswerView struct {
	Theme       *styles.Theme
	Highlighter *Highlighter
	Prose       ProseRenderer
	Width       int
}

// CodeRef ties a numbered copy badge to the block it copies.
type CodeRef struct {
	Number int
	Key    answer.Key
	Text   string
}

// Render draws text as the answer of turn in session. Code blocks are numbered from
// firstNumber; the refs for them are returned in order. copied reports
// which blocks show the "Copied!" acknowledgment.
func (v AnswerView) Render(session string, turn int, text string, firstNumber int, copied func(answer.Key) bool) (string, []CodeRef) {
	blocks := answer.Render(text)

	var (
		parts []string
		refs  []CodeRef
		code  int
	)
	for _, b := range blocks {
		switch b.Kind {
		case answer.Code:
			key := answer.Key{Session: session, Turn: turn, Block: code}
			number := firstNumber + code
			code++

			cb := CodeBlock{
				Number:   number,
				Language: b.Language,
				Code:     b.Body(),
				Copied:   copied != nil && copied(key),
				Width:    v.Width,
			}
			parts = append(parts, cb.Render(v.Theme, v.Highlighter))
			refs = append(refs, CodeRef{Number: number, Key: key, Text: b.Copy()})

		default:
			if strings.TrimSpace(b.Text) == "" {
				continue
			}
			parts = append(parts, v.Prose.Render(b.Text, v.Width))
		}
	}

	return strings.Join(parts, "\n"), refs
}
