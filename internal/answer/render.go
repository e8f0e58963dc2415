// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"regexp"
	"strings"

	"github.com/jeranaias/devdose-tui/internal/format"
)

// Fence delimits code blocks.
const Fence = "```"

// Kind tells prose from code.
type Kind int

const (
	Prose Kind = iota
	Code
)

func (k Kind) String() string {
	if k == Code {
		return "code"
	}
	return "prose"
}

// infoLineRe matches a fence info string such as "go" or "c++".
var infoLineRe = regexp.MustCompile(`^[A-Za-z0-9_+#.-]{1,32}$`)

// Block is one rendered segment of an answer.
type Block struct {
	Kind Kind

	// Text is cleaned prose, or the raw code segment exactly as received.
	Text string

	// Language is the fence info string, if the segment starts with one.
	Language string
}

// Copy returns what the copy action puts on the clipboard: the trimmed raw
// segment.
func (b Block) Copy() string {
	return strings.TrimSpace(b.Text)
}

// Body returns the code to display, without the info line.
func (b Block) Body() string {
	if b.Kind != Code {
		return b.Text
	}
	raw := b.Text
	if b.Language != "" {
		if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
			raw = raw[nl+1:]
		}
	}
	return strings.Trim(raw, "\n")
}

// Render splits text into blocks. With fewer than two or an odd number of
// fences the result is a single prose block of format.Clean(text).
// Otherwise even segments are cleaned prose and odd segments verbatim code,
// so n fences give n+1 blocks starting and ending with prose.
func Render(text string) []Block {
	n := strings.Count(text, Fence)
	if n < 2 || n%2 != 0 {
		return []Block{{Kind: Prose, Text: format.Clean(text)}}
	}

	parts := strings.Split(text, Fence)
	blocks := make([]Block, 0, len(parts))
	for i, part := range parts {
		if i%2 == 0 {
			blocks = append(blocks, Block{Kind: Prose, Text: format.Clean(part)})
			continue
		}
		blocks = append(blocks, Block{Kind: Code, Text: part, Language: language(part)})
	}
	return blocks
}

// language reads the info string on the first line of a code segment. A
// single-line segment is all code.
func language(segment string) string {
	nl := strings.IndexByte(segment, '\n')
	if nl < 0 {
		return ""
	}
	first := strings.TrimSpace(segment[:nl])
	if !infoLineRe.MatchString(first) {
		return ""
	}
	return strings.ToLower(first)
}

// CodeBlocks returns only the code blocks, in order.
func CodeBlocks(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Kind == Code {
			out = append(out, b)
		}
	}
	return out
}
