// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/util"
)

// Section labels in Markdown exports.
const (
	markdownTitle     = "DevDose AI Chat History"
	labelQuestion     = "You"
	labelAnswer       = "DevDose AI"
	labelNoAnswer     = "*No answer*"
	untitledSession   = "New Chat"
	markdownTitleRune = 60
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes one section per session. Answers are copied as
// they were received, so their code fences survive.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontmatter is the YAML header of a Markdown export.
type frontmatter struct {
	Title     string `yaml:"title"`
	Sessions  int    `yaml:"sessions"`
	Turns     int    `yaml:"turns"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts the collection to Markdown.
func (e *MarkdownExporter) Export(c model.Collection) ([]byte, error) {
	sessions := visible(c, e.options.IncludeEmpty)
	if len(sessions) == 0 {
		return nil, ErrNothingToExport
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontmatter{
			Title:     markdownTitle,
			Sessions:  len(sessions),
			Turns:     countTurns(sessions),
			Exported:  formatTimestamp(e.options.now()),
			Generator: Generator,
		})
		if err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# " + markdownTitle + "\n\n")

	for i, s := range sessions {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, escapeMarkdown(sessionTitle(s)))

		for _, turn := range s.Turns {
			fmt.Fprintf(&sb, "### %s\n\n", labelQuestion)
			sb.WriteString(strings.TrimSpace(turn.Question))
			sb.WriteString("\n\n")

			fmt.Fprintf(&sb, "### %s\n\n", labelAnswer)
			if strings.TrimSpace(turn.Answer) == "" {
				sb.WriteString(labelNoAnswer)
			} else {
				sb.WriteString(strings.TrimSpace(turn.Answer))
			}
			sb.WriteString("\n\n")
		}

		if i < len(sessions)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func sessionTitle(s model.Session) string {
	q := util.OneLine(s.First().Question)
	if strings.TrimSpace(q) == "" {
		return untitledSession
	}
	return util.FitWidth(q, markdownTitleRune)
}

func countTurns(c model.Collection) int {
	n := 0
	for _, s := range c {
		n += len(s.Turns)
	}
	return n
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"`", "\\`",
	)
	return r.Replace(s)
}
