// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/devdose-tui/internal/model"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// Document is the YAML export layout. ImportYAML reads the same layout.
type Document struct {
	Generator string          `yaml:"generator,omitempty"`
	Exported  string          `yaml:"exported,omitempty"`
	Sessions  []model.Session `yaml:"sessions"`
}

// YAMLExporter writes the collection as a Document.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts the collection to YAML.
func (e *YAMLExporter) Export(c model.Collection) ([]byte, error) {
	doc := Document{Sessions: visible(c, e.options.IncludeEmpty)}
	if doc.Sessions == nil {
		doc.Sessions = []model.Session{}
	}
	if e.options.IncludeMetadata {
		doc.Generator = Generator
		doc.Exported = formatTimestamp(e.options.now())
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return data, nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
