// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage is the key/value persistence layer behind chat history.
//
// It plays the part browser local storage plays for a web client: string
// keys, opaque values, a per-value quota and change notification across
// processes.
//
// # Key Types
//
//   - KV: Get/Set/Remove/Close over string keys
//   - FileStore: one JSON document per key, written atomically
//   - SQLiteStore: a single kv table in a modernc.org/sqlite database
//   - Watcher: fsnotify-based change notification for a key
//
// # Usage
//
//	kv, err := storage.Open(storage.Options{Backend: "file", Dir: dir, QuotaBytes: 5 << 20})
//	defer kv.Close()
//
//	err = kv.Set("chatSessions", data)
//	data, err = kv.Get("chatSessions") // storage.ErrNotFound when absent
package storage
