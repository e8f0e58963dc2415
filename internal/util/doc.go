// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the devdose packages.
//
// # Key Functions
//
// Text:
//   - PrefixRunes: first n characters of a string, never splitting a rune
//   - FitWidth: truncate to a terminal column width with an ellipsis
//   - OneLine: collapse line breaks for single-line previews
//
// Files:
//   - AtomicWriteFile: crash-safe write via temp file, fsync and rename
//
// # Usage
//
//	preview := util.PrefixRunes(turn.Answer, 40)
//	label := util.FitWidth(util.OneLine(turn.Question), width)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
