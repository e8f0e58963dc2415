// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/devdose-tui/internal/model"
)

// MaxImportSize caps the file Import reads.
const MaxImportSize = 50 * 1024 * 1024

// ErrUnrecognized is returned for input in neither import format.
var ErrUnrecognized = errors.New("unrecognized history format")

// =============================================================================
// IMPORT
// =============================================================================

// Import decodes history exported as JSON ([[{"q","a"}]], also what the
// browser client keeps in local storage) or as a YAML Document.
func Import(data []byte) (model.Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.Collection{}, nil
	}

	if trimmed[0] == '[' {
		c, err := model.Decode(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
		}
		return c, nil
	}
	return ImportYAML(trimmed)
}

// ImportYAML decodes a YAML Document.
func ImportYAML(data []byte) (model.Collection, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnrecognized, err)
	}
	if doc.Sessions == nil {
		return nil, fmt.Errorf("%w: no sessions key", ErrUnrecognized)
	}

	c := make(model.Collection, 0, len(doc.Sessions))
	for _, s := range doc.Sessions {
		if s.Turns == nil {
			s.Turns = []model.Turn{}
		}
		s.ID = uuid.NewString()
		c = append(c, s)
	}
	return c, nil
}

// ImportFile reads and decodes a history file.
func ImportFile(path string) (model.Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	if info.Size() > MaxImportSize {
		return nil, fmt.Errorf("import %s: file is %d bytes, limit is %d", path, info.Size(), MaxImportSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	c, err := Import(data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return c, nil
}

// Merge puts imported sessions ahead of existing ones, dropping empty
// imported sessions.
func Merge(existing, imported model.Collection) model.Collection {
	out := make(model.Collection, 0, len(existing)+len(imported))
	for _, s := range imported {
		if !s.IsEmpty() {
			out = append(out, s.Clone())
		}
	}
	return append(out, existing.Clone()...)
}
