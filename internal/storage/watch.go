// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ErrWatchUnsupported is returned by Watch for stores that are not file backed.
var ErrWatchUnsupported = errors.New("store does not support watching")

// DefaultDebounce groups the burst of events an atomic rename produces.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes to one stored key made by any process, this one
// included. Consumers compare the new value with what they last wrote.
type Watcher struct {
	watcher  *fsnotify.Watcher
	target   string
	debounce time.Duration
	changes  chan struct{}
	done     chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Watch starts watching the file behind key. The store must implement
// Locator.
func Watch(kv KV, key string, debounce time.Duration) (*Watcher, error) {
	loc, ok := kv.(Locator)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return WatchFile(loc.WatchPath(key), debounce)
}

// WatchFile watches path. Events for siblings sharing its name as a prefix
// (sqlite -wal and -shm files, atomic-write temp files) count as changes.
func WatchFile(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched because atomic renames replace the file inode.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		watcher:  fw,
		target:   path,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers one signal per debounced burst of writes. It is closed
// by Close.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) matches(name string) bool {
	base := filepath.Base(w.target)
	got := filepath.Base(name)
	return strings.HasPrefix(got, base) || strings.HasPrefix(got, "."+base)
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.target).Msg("history watcher error")
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.notify)
}

// notify sends under mu so it never races the close of changes.
func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// Close stops the watcher, waits for its goroutine to exit and closes the
// Changes channel.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
		}
		close(w.changes)
		w.mu.Unlock()
	})
	return err
}
