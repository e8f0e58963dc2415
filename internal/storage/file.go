// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/devdose-tui/internal/util"
)

// FileStore keeps each key in <dir>/<key>.json.
type FileStore struct {
	dir   string
	quota int64
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

// WatchPath returns the file that holds key.
func (s *FileStore) WatchPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Get reads the value for key.
func (s *FileStore) Get(key string) ([]byte, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.WatchPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set replaces the value for key atomically.
func (s *FileStore) Set(key string, value []byte) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := checkQuota(key, value, s.quota); err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.WatchPath(key), value, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *FileStore) Remove(key string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	err := os.Remove(s.WatchPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
