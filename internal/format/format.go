// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format turns model markdown into plain, emoji-decorated prose
// that reads well without a markdown renderer.
package format

import (
	"regexp"
	"strings"
)

// Line-start markers. Leading whitespace is matched with [ \t]* so a rule
// never swallows the newline of a preceding blank line.
var (
	bulletRe  = regexp.MustCompile(`(?m)^[ \t]*[-•*][ \t]+`)
	orderedRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	h3Re      = regexp.MustCompile(`(?m)^[ \t]*### `)
	h2Re      = regexp.MustCompile(`(?m)^[ \t]*## `)
	h1Re      = regexp.MustCompile(`(?m)^[ \t]*# `)
)

// Decorations substituted for markdown markers.
const (
	Bullet    = "• "
	Numbered  = "🔹 "
	Heading1  = "🌟 "
	Heading2  = "✨ "
	Heading3  = "👉 "
	emphasis2 = "**"
	emphasis1 = "*"
)

// Clean strips emphasis markers, swaps heading and list markers for emoji,
// and trims the result. It is deterministic and Clean(Clean(s)) == Clean(s).
//
// List markers are rewritten before emphasis is stripped so that "* item"
// bullets survive as bullets.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := bulletRe.ReplaceAllString(text, Bullet)

	cleaned = strings.ReplaceAll(cleaned, emphasis2, "")
	cleaned = strings.ReplaceAll(cleaned, emphasis1, "")

	// Trim before the line-start rules so no marker is exposed after them.
	// Stripping can also expose markers ("*1. x") or leave "•  " behind.
	cleaned = strings.TrimSpace(cleaned)
	cleaned = bulletRe.ReplaceAllString(cleaned, Bullet)
	cleaned = orderedRe.ReplaceAllString(cleaned, Numbered)

	// Longest heading marker first so "### x" is not read as "# ## x".
	cleaned = h3Re.ReplaceAllString(cleaned, Heading3)
	cleaned = h2Re.ReplaceAllString(cleaned, Heading2)
	cleaned = h1Re.ReplaceAllString(cleaned, Heading1)

	return strings.TrimSpace(cleaned)
}
