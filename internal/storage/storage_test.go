// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns one fresh store per implementation.
func backends(t *testing.T, quota int64) map[string]KV {
	t.Helper()

	file, err := Open(Options{Backend: "file", Dir: t.TempDir(), QuotaBytes: quota})
	require.NoError(t, err)

	db, err := Open(Options{Backend: "sqlite", Dir: t.TempDir(), QuotaBytes: quota})
	require.NoError(t, err)

	t.Cleanup(func() {
		file.Close()
		db.Close()
	})
	return map[string]KV{"file": file, "sqlite": db}
}

// =============================================================================
// KV CONTRACT
// =============================================================================

func TestKV_SetGetRemove(t *testing.T) {
	for name, kv := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("chatSessions")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set("chatSessions", []byte(`[[{"q":"hi","a":"yo"}]]`)))
			got, err := kv.Get("chatSessions")
			require.NoError(t, err)
			assert.Equal(t, `[[{"q":"hi","a":"yo"}]]`, string(got))

			require.NoError(t, kv.Set("chatSessions", []byte(`[]`)))
			got, err = kv.Get("chatSessions")
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, kv.Remove("chatSessions"))
			_, err = kv.Get("chatSessions")
			assert.ErrorIs(t, err, ErrNotFound)

			// Removing twice is fine.
			assert.NoError(t, kv.Remove("chatSessions"))
		})
	}
}

func TestKV_KeysAreIndependent(t *testing.T) {
	for name, kv := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("a", []byte("1")))
			require.NoError(t, kv.Set("b", []byte("2")))
			require.NoError(t, kv.Remove("a"))

			got, err := kv.Get("b")
			require.NoError(t, err)
			assert.Equal(t, "2", string(got))
		})
	}
}

func TestKV_Quota(t *testing.T) {
	for name, kv := range backends(t, 16) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("k", []byte("small")))

			err := kv.Set("k", bytes.Repeat([]byte("x"), 17))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrQuotaExceeded), "got %v", err)

			// The previous value survives a rejected write.
			got, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "small", string(got))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "redis", Dir: t.TempDir()})
	assert.Error(t, err)
}

// =============================================================================
// FILE STORE
// =============================================================================

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, s.Set(key, []byte("x")), "key %q", key)
	}
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, 0)
	require.NoError(t, err)

	require.NoError(t, s.Set("chatSessions", []byte("[]")))
	_, err = os.Stat(filepath.Join(dir, "chatSessions.json"))
	assert.NoError(t, err)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Set("chatSessions", []byte("[[]]")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("chatSessions")
	require.NoError(t, err)
	assert.Equal(t, "[[]]", string(got))
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatch_ReportsWrites(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	w, err := Watch(s, "chatSessions", 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, s.Set("chatSessions", []byte("[]")))

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after write")
	}
}

func TestWatch_IgnoresOtherKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	w, err := Watch(s, "chatSessions", 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, s.Set("settings", []byte("{}")))

	select {
	case <-w.Changes():
		t.Fatal("unexpected notification for another key")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_Unsupported(t *testing.T) {
	_, err := Watch(memKV{}, "k", 0)
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	w, err := Watch(s, "chatSessions", 0)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcher_CloseEndsChanges(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	w, err := Watch(s, "chatSessions", 10*time.Millisecond)
	require.NoError(t, err)

	received := make(chan bool, 1)
	go func() {
		_, ok := <-w.Changes()
		received <- ok
	}()

	require.NoError(t, w.Close())
	select {
	case ok := <-received:
		assert.False(t, ok, "Changes must be closed, not signalled")
	case <-time.After(2 * time.Second):
		t.Fatal("receiver still blocked after Close")
	}
}

func TestWatcher_CloseDuringPendingNotify(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	w, err := Watch(s, "chatSessions", time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, s.Set("chatSessions", []byte("[]")))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, w.Close())

	// A debounce timer firing after Close must not send on the closed channel.
	time.Sleep(20 * time.Millisecond)
	for range w.Changes() {
	}
}

type memKV struct{}

func (memKV) Get(string) ([]byte, error) { return nil, ErrNotFound }
func (memKV) Set(string, []byte) error   { return nil }
func (memKV) Remove(string) error        { return nil }
func (memKV) Close() error               { return nil }
