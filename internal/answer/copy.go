// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"sync"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// Copy button labels.
const (
	LabelCopy   = "📋 Copy"
	LabelCopied = "✅ Copied!"
)

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

// WriteAll copies text to the OS clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Key identifies a code block: the session by ID, then the turn and the
// block's position among that answer's code blocks.
type Key struct {
	Session string
	Turn    int
	Block   int
}

// CopyTracker remembers which code block was copied last. Only one block
// shows the acknowledgement at a time.
type CopyTracker struct {
	mu     sync.Mutex
	clip   Clipboard
	copied Key
	active bool
	token  uint64
}

// NewCopyTracker creates a tracker writing to clip.
func NewCopyTracker(clip Clipboard) *CopyTracker {
	return &CopyTracker{clip: clip}
}

// Copy writes text to the clipboard, marks key as copied and returns a
// token for the matching Reset. A clipboard failure is logged and still
// acknowledged.
func (t *CopyTracker) Copy(key Key, text string) uint64 {
	if err := t.clip.WriteAll(text); err != nil {
		log.Warn().Err(err).Msg("clipboard write failed")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.token++
	t.copied = key
	t.active = true
	return t.token
}

// Reset clears the acknowledgement if token belongs to the latest copy.
// A stale token from an earlier copy does nothing.
func (t *CopyTracker) Reset(token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || token != t.token {
		return false
	}
	t.active = false
	return true
}

// Copied reports whether key shows the acknowledgement.
func (t *CopyTracker) Copied(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active && t.copied == key
}

// Label returns the button text for key.
func (t *CopyTracker) Label(key Key) string {
	if t.Copied(key) {
		return LabelCopied
	}
	return LabelCopy
}
