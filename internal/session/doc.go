// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the in-memory chat history and keeps it persisted.
//
// Every mutating call writes the whole collection back under a single
// storage key. Storage failures are logged and swallowed: a full disk or
// a corrupt file never takes the chat down.
//
// # Key Types
//
//   - Store: the session collection, the active index and the
//     answer-already-saved guard
//   - Entry: a non-empty session paired with its real index, for sidebars
//
// # Usage
//
//	store := session.New(kv, "chatSessions")
//	store.Load()
//
//	idx := store.AppendTurn(store.Active(), "2+2?")
//	store.SetLastAnswer(idx, "4")
package session
