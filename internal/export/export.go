// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/util"
)

// Generator names the program in export headers.
const Generator = "devdose"

// ErrNothingToExport is returned when every session is empty.
var ErrNothingToExport = errors.New("no chat history to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a session collection to one format.
type Exporter interface {
	// Export returns the encoded collection.
	Export(c model.Collection) ([]byte, error)

	// FileExtension returns the extension for the format (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type for the format.
	MimeType() string
}

// Format is an export format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatYAML}
}

// ParseFormat resolves a format name or common extension.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", name)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where ExportToFile writes. Default: current directory.
	OutputDir string

	// IncludeEmpty keeps sessions with no turns. The JSON exporter always
	// keeps them so the collection round-trips.
	IncludeEmpty bool

	// IncludeMetadata adds a header with the export time and counts.
	IncludeMetadata bool

	// Now stamps the header. Default: time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		Now:             time.Now,
	}
}

func (o *Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatYAML:
		return NewYAMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile writes the collection to a timestamped file in
// opts.OutputDir and returns its path.
func ExportToFile(c model.Collection, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(c)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("devdose_%s_%s%s",
		sanitizeFilename(title(c)),
		opts.now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// visible drops empty sessions unless asked to keep them.
func visible(c model.Collection, includeEmpty bool) model.Collection {
	if includeEmpty {
		return c
	}
	out := make(model.Collection, 0, len(c))
	for _, s := range c {
		if !s.IsEmpty() {
			out = append(out, s)
		}
	}
	return out
}

// title is the first question of the newest non-empty session.
func title(c model.Collection) string {
	for _, s := range c {
		if !s.IsEmpty() {
			return util.OneLine(s.First().Question)
		}
	}
	return "history"
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.PrefixRunes(s, 40)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "history"
	}
	return b.String()
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
