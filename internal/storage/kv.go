// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrNotFound is returned by Get for a key that was never set or was removed.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when a value is larger than the quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KV is a minimal string-keyed store.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}

// Locator is implemented by stores backed by a file on disk. WatchPath
// returns the file whose changes signal that key may have changed.
type Locator interface {
	WatchPath(key string) string
}

// Options selects a backend.
type Options struct {
	// Backend is "file" or "sqlite".
	Backend string

	// Dir holds the JSON files or the history.db database.
	Dir string

	// QuotaBytes caps a single value; 0 disables the cap.
	QuotaBytes int64
}

// Open creates the store described by opts.
func Open(opts Options) (KV, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.Dir, opts.QuotaBytes)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(opts.Dir, "history.db"), opts.QuotaBytes)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

// checkQuota enforces the per-value limit shared by all backends.
func checkQuota(key string, value []byte, quota int64) error {
	if quota > 0 && int64(len(value)) > quota {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrQuotaExceeded, key, len(value), quota)
	}
	return nil
}
