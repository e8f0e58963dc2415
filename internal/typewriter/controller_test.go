// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// manualScheduler fires ticks only when the test asks.
type manualScheduler struct {
	mu      sync.Mutex
	fn      func()
	started int
	stopped int
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
	s.started++
	id := s.started
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.stopped++
			if s.started == id {
				s.fn = nil
			}
			s.mu.Unlock()
		})
	}
}

func (s *manualScheduler) fire(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		fn := s.fn
		s.mu.Unlock()
		if fn == nil {
			return
		}
		fn()
	}
}

type recorder struct {
	mu      sync.Mutex
	reveals []string
	commits []string
}

func (r *recorder) reveal(s string) {
	r.mu.Lock()
	r.reveals = append(r.reveals, s)
	r.mu.Unlock()
}

func (r *recorder) commit(s string) {
	r.mu.Lock()
	r.commits = append(r.commits, s)
	r.mu.Unlock()
}

func TestController_RevealsAndCommits(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, rec.reveal, rec.commit)

	c.Start("abc")
	assert.Equal(t, Typing, c.State())
	sched.fire(10)

	assert.Equal(t, []string{"a", "ab", "abc"}, rec.reveals)
	assert.Equal(t, []string{"abc"}, rec.commits)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, sched.started)
	assert.Equal(t, 1, sched.stopped)
}

func TestController_SingleCharacterIsRevealed(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, rec.reveal, rec.commit)

	c.Start("4")
	sched.fire(1)

	assert.Equal(t, []string{"4"}, rec.reveals)
	assert.Equal(t, []string{"4"}, rec.commits)
}

func TestController_StopCommitsVisible(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, rec.reveal, rec.commit)

	c.Start("hello")
	sched.fire(2)
	c.Stop()
	c.Stop()

	assert.Equal(t, []string{"he"}, rec.commits)
	assert.Equal(t, 1, sched.stopped)
	assert.Equal(t, Idle, c.State())
}

func TestController_EmptySourceNeverSchedules(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, nil, rec.commit)

	c.Start("")
	assert.Equal(t, []string{""}, rec.commits)
	assert.Equal(t, 0, sched.started)
}

func TestController_RestartAbandonsPrevious(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, nil, rec.commit)

	c.Start("first")
	sched.fire(2)
	c.Start("ok")
	sched.fire(5)

	assert.Equal(t, []string{"ok"}, rec.commits)
	assert.Equal(t, 2, sched.started)
	assert.Equal(t, 2, sched.stopped)
}

func TestController_CloseCancelsWithoutCommit(t *testing.T) {
	sched := &manualScheduler{}
	rec := &recorder{}
	c := NewController(sched, time.Millisecond, nil, rec.commit)

	c.Start("never finished")
	sched.fire(3)
	c.Close()
	sched.fire(3)
	c.Start("ignored")

	assert.Empty(t, rec.commits)
	assert.Equal(t, 1, sched.stopped)
	assert.Equal(t, Idle, c.State())
}

func TestController_TickerSchedulerRunsToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan string, 1)
	c := NewController(TickerScheduler{}, time.Millisecond, nil, func(s string) { done <- s })
	c.Start("quick")

	select {
	case got := <-done:
		assert.Equal(t, "quick", got)
	case <-time.After(5 * time.Second):
		t.Fatal("reveal did not finish")
	}
	c.Close()
}

func TestController_CloseStopsTicker(t *testing.T) {
	defer goleak.VerifyNone(t)

	var commits int
	c := NewController(TickerScheduler{}, time.Hour, nil, func(string) { commits++ })
	c.Start("this will never tick")
	require.Equal(t, Typing, c.State())
	c.Close()

	assert.Zero(t, commits)
}

func TestController_Defaults(t *testing.T) {
	c := NewController(nil, 0, nil, nil)
	assert.Equal(t, DefaultIntervalMs*time.Millisecond, c.interval)
	assert.IsType(t, TickerScheduler{}, c.sched)
}
