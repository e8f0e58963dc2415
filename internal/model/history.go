// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// TURN
// =============================================================================

// Turn is one question and its answer. Answer stays empty while the request
// is in flight and until the reveal animation commits it.
type Turn struct {
	Question string `json:"q" yaml:"question"`
	Answer   string `json:"a" yaml:"answer"`
}

// Pending reports whether the turn has not received an answer yet.
func (t Turn) Pending() bool {
	return t.Answer == ""
}

// =============================================================================
// SESSION
// =============================================================================

// Session is an ordered list of turns. A session with no turns is the
// placeholder created by "New Chat".
type Session struct {
	// ID lives only in memory. It lets a late answer find the session that
	// asked for it after the list has been reordered.
	ID    string `json:"-" yaml:"-"`
	Turns []Turn `yaml:"turns"`
}

// NewSession returns an empty session with a fresh ID.
func NewSession() Session {
	return Session{ID: uuid.NewString(), Turns: []Turn{}}
}

// IsEmpty reports whether the session has no turns.
func (s Session) IsEmpty() bool {
	return len(s.Turns) == 0
}

// First returns the opening turn, or the zero Turn for an empty session.
func (s Session) First() Turn {
	if len(s.Turns) == 0 {
		return Turn{}
	}
	return s.Turns[0]
}

// Last returns the newest turn, or the zero Turn for an empty session.
func (s Session) Last() Turn {
	if len(s.Turns) == 0 {
		return Turn{}
	}
	return s.Turns[len(s.Turns)-1]
}

// Clone returns a session that shares no memory with s.
func (s Session) Clone() Session {
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return Session{ID: s.ID, Turns: turns}
}

// MarshalJSON writes the session as a bare array of turns.
func (s Session) MarshalJSON() ([]byte, error) {
	turns := s.Turns
	if turns == nil {
		turns = []Turn{}
	}
	return json.Marshal(turns)
}

// UnmarshalJSON reads a bare array of turns and assigns a new ID. A JSON
// null decodes as an empty session.
func (s *Session) UnmarshalJSON(data []byte) error {
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return err
	}
	if turns == nil {
		turns = []Turn{}
	}
	s.ID = uuid.NewString()
	s.Turns = turns
	return nil
}

// =============================================================================
// COLLECTION
// =============================================================================

// Collection holds every session, newest first.
type Collection []Session

// Clone returns a deep copy.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, s := range c {
		out[i] = s.Clone()
	}
	return out
}

// IndexOf returns the position of the session with the given ID, or -1.
func (c Collection) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range c {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// NonEmpty counts sessions that hold at least one turn.
func (c Collection) NonEmpty() int {
	n := 0
	for _, s := range c {
		if !s.IsEmpty() {
			n++
		}
	}
	return n
}

// Encode serializes the collection. A nil collection encodes as [].
func Encode(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}

// Decode parses a serialized collection. Blank input yields an empty
// collection.
func Decode(data []byte) (Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Collection{}, nil
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}
