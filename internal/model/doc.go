// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the chat history data types.
//
// # Key Types
//
//   - Turn: one question and its answer
//   - Session: ordered turns plus an in-memory identity
//   - Collection: all sessions, newest first
//
// # Persisted Form
//
// A Collection serializes as nested arrays of {"q", "a"} objects, the same
// shape a browser build of the app keeps in local storage:
//
//	[[{"q":"2+2?","a":"4"}],[]]
//
// Session IDs are not persisted; every decode assigns fresh ones.
package model
