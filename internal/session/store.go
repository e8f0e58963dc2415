// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/devdose-tui/internal/model"
	"github.com/jeranaias/devdose-tui/internal/storage"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds the session collection and mirrors it to a storage.KV.
type Store struct {
	mu sync.Mutex

	kv  storage.KV
	key string

	sessions model.Collection
	active   int

	// answerSaved guards SetLastAnswer so a turn's answer is written once.
	// AppendTurn re-arms it.
	answerSaved bool

	// lastWritten is the last payload this store wrote or read, used to
	// tell our own writes apart from another process's.
	lastWritten []byte
}

// Entry is a non-empty session and its position in the collection.
type Entry struct {
	Index   int
	Session model.Session
}

// New creates an empty store. Call Load to read persisted history.
func New(kv storage.KV, key string) *Store {
	return &Store{kv: kv, key: key, sessions: model.Collection{}}
}

// Key returns the storage key the history lives under.
func (s *Store) Key() string {
	return s.key
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load replaces the in-memory history with the persisted one and resets the
// active index to 0. A missing key or unreadable payload yields an empty
// collection.
func (s *Store) Load() model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = s.readLocked()
	s.active = 0
	s.answerSaved = false
	return s.sessions.Clone()
}

func (s *Store) readLocked() model.Collection {
	data, err := s.kv.Get(s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.lastWritten = nil
		return model.Collection{}
	}
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("could not read chat history, starting empty")
		return model.Collection{}
	}

	c, err := model.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("chat history is corrupt, starting empty")
		return model.Collection{}
	}
	s.lastWritten = data
	log.Debug().Int("sessions", len(c)).Msg("chat history loaded")
	return c
}

// Save writes the current history. Failures are logged, not returned.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	data, err := model.Encode(s.sessions)
	if err != nil {
		log.Error().Err(err).Msg("could not encode chat history")
		return
	}
	if err := s.kv.Set(s.key, data); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			log.Warn().Err(err).Msg("storage full, cannot save chat sessions")
		} else {
			log.Error().Err(err).Msg("could not save chat sessions")
		}
		return
	}
	s.lastWritten = data
}

// Reload re-reads persisted history written by someone else. It reports
// false, leaving memory untouched, when the stored bytes match what this
// store last wrote or cannot be decoded.
func (s *Store) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if s.lastWritten == nil && len(s.sessions) == 0 {
			return false
		}
		s.lastWritten = nil
		s.sessions = model.Collection{}
		s.active = 0
		return true
	case err != nil:
		log.Warn().Err(err).Msg("could not re-read chat history")
		return false
	}

	if bytes.Equal(data, s.lastWritten) {
		return false
	}
	c, err := model.Decode(data)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable external history change")
		return false
	}

	s.sessions = c
	s.lastWritten = data
	if s.active >= len(s.sessions) {
		s.active = 0
	}
	log.Info().Int("sessions", len(c)).Msg("chat history changed on disk, reloaded")
	return true
}

// =============================================================================
// MUTATIONS
// =============================================================================

// NewSession prepends an empty session and makes it active.
func (s *Store) NewSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(model.Collection{model.NewSession()}, s.sessions...)
	s.active = 0
	s.persistLocked()
}

// ClearAll forgets every session and deletes the storage key.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = model.Collection{}
	s.active = 0
	s.lastWritten = nil
	if err := s.kv.Remove(s.key); err != nil {
		log.Error().Err(err).Msg("could not remove chat history")
	}
}

// AppendTurn adds a pending turn to the session at sessionIndex and returns
// the index the turn landed in. With no session at that index a new one is
// prepended, made active and 0 is returned.
func (s *Store) AppendTurn(sessionIndex int, question string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answerSaved = false
	turn := model.Turn{Question: question}

	if sessionIndex < 0 || sessionIndex >= len(s.sessions) {
		fresh := model.NewSession()
		fresh.Turns = append(fresh.Turns, turn)
		s.sessions = append(model.Collection{fresh}, s.sessions...)
		s.active = 0
		s.persistLocked()
		return 0
	}

	s.sessions[sessionIndex].Turns = append(s.sessions[sessionIndex].Turns, turn)
	s.persistLocked()
	return sessionIndex
}

// SetLastAnswer writes answer into the last turn of the session at
// sessionIndex. It does nothing, returning false, once an answer has been
// saved since the last AppendTurn or when there is no such turn.
func (s *Store) SetLastAnswer(sessionIndex int, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLastAnswerLocked(sessionIndex, answer)
}

// SetLastAnswerByID is SetLastAnswer addressed by session ID, so the answer
// reaches the asking session even after the collection was reordered.
func (s *Store) SetLastAnswerByID(id, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLastAnswerLocked(s.sessions.IndexOf(id), answer)
}

func (s *Store) setLastAnswerLocked(sessionIndex int, answer string) bool {
	if s.answerSaved {
		return false
	}
	if sessionIndex < 0 || sessionIndex >= len(s.sessions) {
		return false
	}
	turns := s.sessions[sessionIndex].Turns
	if len(turns) == 0 {
		return false
	}
	turns[len(turns)-1].Answer = answer
	s.answerSaved = true
	s.persistLocked()
	return true
}

// Select makes the session at i active. Out-of-range indices are ignored.
func (s *Store) Select(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.sessions) {
		return false
	}
	s.active = i
	return true
}

// Replace swaps in a whole collection, for imports, and persists it.
func (s *Store) Replace(c model.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = c.Clone()
	if s.sessions == nil {
		s.sessions = model.Collection{}
	}
	s.active = 0
	s.answerSaved = false
	s.persistLocked()
}

// =============================================================================
// QUERIES
// =============================================================================

// Active returns the active session index.
func (s *Store) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Len returns the number of sessions, empty ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sessions returns a copy of the collection.
func (s *Store) Sessions() model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Clone()
}

// Session returns a copy of the session at i.
func (s *Store) Session(i int) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.sessions) {
		return model.Session{}, false
	}
	return s.sessions[i].Clone(), true
}

// ActiveSession returns a copy of the active session, if any.
func (s *Store) ActiveSession() (model.Session, bool) {
	s.mu.Lock()
	i := s.active
	s.mu.Unlock()
	return s.Session(i)
}

// IndexOf returns the position of the session with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.IndexOf(id)
}

// History lists the sessions worth showing in a sidebar: every session
// that has at least one turn, newest first.
func (s *Store) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.sessions))
	for i, sess := range s.sessions {
		if sess.IsEmpty() {
			continue
		}
		entries = append(entries, Entry{Index: i, Session: sess.Clone()})
	}
	return entries
}
