// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/storage"
)

const key = "chatSessions"

var ignoreIDs = cmpopts.IgnoreFields(model.Session{}, "ID")

func newStore(t *testing.T) (*Store, storage.KV) {
	t.Helper()
	kv, err := storage.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	return New(kv, key), kv
}

// failingKV fails every operation.
type failingKV struct{ err error }

func (f failingKV) Get(string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(string, []byte) error   { return f.err }
func (f failingKV) Remove(string) error        { return f.err }
func (f failingKV) Close() error               { return nil }

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoad_Absent(t *testing.T) {
	s, _ := newStore(t)
	c := s.Load()
	assert.Empty(t, c)
	assert.Equal(t, 0, s.Active())
}

func TestLoad_Corrupt(t *testing.T) {
	s, kv := newStore(t)
	require.NoError(t, kv.Set(key, []byte(`{{{ not json`)))

	c := s.Load()
	assert.Empty(t, c)
	assert.Equal(t, 0, s.Len())
}

func TestLoad_StorageErrorIsNotFatal(t *testing.T) {
	s := New(failingKV{err: errors.New("disk on fire")}, key)
	assert.Empty(t, s.Load())

	// Mutations still work in memory.
	idx := s.AppendTurn(0, "still here?")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, s.Len())
}

func TestSave_QuotaExceededIsSwallowed(t *testing.T) {
	kv, err := storage.NewFileStore(t.TempDir(), 10)
	require.NoError(t, err)
	s := New(kv, key)

	s.AppendTurn(0, "a question long enough to blow a ten byte quota")
	assert.Equal(t, 1, s.Len(), "in-memory state survives a failed save")

	_, err = kv.Get(key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRoundTrip(t *testing.T) {
	s, kv := newStore(t)

	s.AppendTurn(0, "2+2?")
	s.SetLastAnswer(0, "4")
	s.NewSession()
	s.AppendTurn(0, "hello")
	s.SetLastAnswer(0, "```go\nfmt.Println(\"hi\")\n```")
	s.NewSession()

	want := s.Sessions()

	reloaded := New(kv, key)
	got := reloaded.Load()
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("load(save(C)) != C (-want +got):\n%s", diff)
	}
}

// =============================================================================
// APPEND / ANSWER
// =============================================================================

func TestAppendTurn_EmptyCollection(t *testing.T) {
	s, _ := newStore(t)
	s.Load()

	idx := s.AppendTurn(s.Active(), "2+2?")

	assert.Equal(t, 0, idx)
	sessions := s.Sessions()
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Turns, 1)
	assert.Equal(t, model.Turn{Question: "2+2?", Answer: ""}, sessions[0].Turns[0])
}

func TestAppendTurn_ExistingSession(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "first")
	s.SetLastAnswer(0, "one")

	idx := s.AppendTurn(0, "second")

	assert.Equal(t, 0, idx)
	sess, ok := s.Session(0)
	require.True(t, ok)
	assert.Equal(t, []model.Turn{{Question: "first", Answer: "one"}, {Question: "second"}}, sess.Turns)
}

func TestAppendTurn_OutOfRangePrepends(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "old")
	s.SetLastAnswer(0, "x")

	idx := s.AppendTurn(5, "new")

	assert.Equal(t, 0, idx)
	assert.Equal(t, 0, s.Active())
	assert.Equal(t, 2, s.Len())
	first, _ := s.Session(0)
	assert.Equal(t, "new", first.First().Question)
}

func TestSetLastAnswer_OnlyLastTurn(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "q1")
	s.SetLastAnswer(0, "a1")
	s.AppendTurn(0, "q2")

	require.True(t, s.SetLastAnswer(0, "a2"))

	sess, _ := s.Session(0)
	assert.Equal(t, "a1", sess.Turns[0].Answer, "prior turns untouched")
	assert.Equal(t, "a2", sess.Turns[1].Answer)
}

func TestSetLastAnswer_OnlyOncePerTurn(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "q")

	assert.True(t, s.SetLastAnswer(0, "first"))
	assert.False(t, s.SetLastAnswer(0, "second"))

	sess, _ := s.Session(0)
	assert.Equal(t, "first", sess.Last().Answer)

	// A new turn re-arms the guard.
	s.AppendTurn(0, "q2")
	assert.True(t, s.SetLastAnswer(0, "again"))
}

func TestSetLastAnswer_Missing(t *testing.T) {
	s, _ := newStore(t)
	assert.False(t, s.SetLastAnswer(0, "nowhere"))

	s.NewSession()
	assert.False(t, s.SetLastAnswer(0, "empty session"))
}

func TestSetLastAnswerByID_FollowsReorder(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "asked here")
	asking, _ := s.Session(0)

	// New Chat pushes the asking session to index 1.
	s.NewSession()
	require.Equal(t, 1, s.IndexOf(asking.ID))

	require.True(t, s.SetLastAnswerByID(asking.ID, "found you"))
	moved, _ := s.Session(1)
	assert.Equal(t, "found you", moved.Last().Answer)

	assert.False(t, s.SetLastAnswerByID("gone", "x"))
}

// =============================================================================
// NEW / CLEAR / SELECT
// =============================================================================

func TestNewSession_AlwaysPrepends(t *testing.T) {
	s, _ := newStore(t)
	s.NewSession()
	s.NewSession()

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.Active())
	assert.Empty(t, s.History(), "empty sessions are hidden from history")
}

func TestClearAll_ThenReload(t *testing.T) {
	s, kv := newStore(t)
	s.AppendTurn(0, "q")
	s.SetLastAnswer(0, "a")
	s.Select(0)

	s.ClearAll()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Active())
	_, err := kv.Get(key)
	assert.ErrorIs(t, err, storage.ErrNotFound, "storage has no entry for the history key")

	fresh := New(kv, key)
	assert.Empty(t, fresh.Load())
}

func TestSelect(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "a")
	s.NewSession()

	assert.True(t, s.Select(1))
	assert.Equal(t, 1, s.Active())
	assert.False(t, s.Select(2))
	assert.False(t, s.Select(-1))
	assert.Equal(t, 1, s.Active())

	active, ok := s.ActiveSession()
	require.True(t, ok)
	assert.Equal(t, "a", active.First().Question)
}

func TestHistory_KeepsRealIndices(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "older")
	s.SetLastAnswer(0, "x")
	s.NewSession()

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, 1, h[0].Index)
	assert.Equal(t, "older", h[0].Session.First().Question)
}

func TestSessions_ReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "q")

	c := s.Sessions()
	c[0].Turns[0].Question = "mutated"

	sess, _ := s.Session(0)
	assert.Equal(t, "q", sess.First().Question)
}

// =============================================================================
// REPLACE / RELOAD
// =============================================================================

func TestReplace(t *testing.T) {
	s, kv := newStore(t)
	s.AppendTurn(0, "to be replaced")

	imported := model.Collection{{Turns: []model.Turn{{Question: "imported", Answer: "yes"}}}}
	s.Replace(imported)

	assert.Equal(t, 1, s.Len())
	got := New(kv, key).Load()
	assert.Equal(t, "imported", got[0].First().Question)
}

func TestReload_IgnoresOwnWrites(t *testing.T) {
	s, _ := newStore(t)
	s.AppendTurn(0, "q")
	assert.False(t, s.Reload())
}

func TestReload_PicksUpExternalWrites(t *testing.T) {
	s, kv := newStore(t)
	s.AppendTurn(0, "mine")

	other := New(kv, key)
	other.Load()
	other.NewSession()
	other.AppendTurn(0, "theirs")

	require.True(t, s.Reload())
	assert.Equal(t, 2, s.Len())
	first, _ := s.Session(0)
	assert.Equal(t, "theirs", first.First().Question)
}

func TestReload_ExternalClear(t *testing.T) {
	s, kv := newStore(t)
	s.AppendTurn(0, "q")

	require.NoError(t, kv.Remove(key))
	assert.True(t, s.Reload())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Reload())
}

func TestReload_CorruptIsIgnored(t *testing.T) {
	s, kv := newStore(t)
	s.AppendTurn(0, "q")

	require.NoError(t, kv.Set(key, []byte("garbage")))
	assert.False(t, s.Reload())
	assert.Equal(t, 1, s.Len())
}
