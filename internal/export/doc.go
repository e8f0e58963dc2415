// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat history out of devdose and reads it back in.
//
// # Formats
//
//   - JSON: the stored shape, [[{"q","a"}]], which the browser client also
//     keeps in local storage. Exports re-import unchanged.
//   - Markdown: human-readable, one section per session.
//   - YAML: the sessions as a document with a small header.
//
// # Usage
//
//	exp, err := export.New(export.FormatMarkdown, nil)
//	data, err := exp.Export(store.Sessions())
//
// Import accepts the JSON shape and the YAML document:
//
//	sessions, err := export.ImportFile("history.json")
//	store.Replace(sessions)
package export
