// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

import (
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned stop is called.
// stop must be safe to call more than once and from within fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler runs fn on a time.Ticker in its own goroutine.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Controller drives a Machine on a Scheduler. At most one timer is live.
type Controller struct {
	mu       sync.Mutex
	machine  Machine
	sched    Scheduler
	interval time.Duration
	stop     func()
	closed   bool

	onReveal func(visible string)
	onCommit func(answer string)
}

// NewController creates a controller. onReveal receives the visible text
// after each tick, the committing one included; onCommit receives the committed answer once per reveal.
// Either may be nil. Callbacks run without the controller's lock held.
func NewController(sched Scheduler, interval time.Duration, onReveal, onCommit func(string)) *Controller {
	if sched == nil {
		sched = TickerScheduler{}
	}
	if interval <= 0 {
		interval = DefaultIntervalMs * time.Millisecond
	}
	return &Controller{
		sched:    sched,
		interval: interval,
		onReveal: onReveal,
		onCommit: onCommit,
	}
}

// Start reveals source, cancelling any reveal in progress without
// committing it.
func (c *Controller) Start(source string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	prevStop := c.stop
	c.stop = nil

	// A reveal in progress is abandoned; its ticks carry a stale generation.
	next, res := Machine{gen: c.machine.gen}.Start(source)
	c.machine = next

	if res.Effect == EffectTimerStart {
		gen := res.Generation
		c.stop = c.sched.Every(c.interval, func() { c.tick(gen) })
	}
	c.mu.Unlock()

	if prevStop != nil {
		prevStop()
	}
	c.apply(res)
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if !c.machine.Typing() || c.machine.gen != gen {
		c.mu.Unlock()
		return
	}
	next, res := c.machine.Tick(gen)
	c.machine = next
	visible := next.Visible()
	stop := c.takeStopLocked(res)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if c.onReveal != nil {
		c.onReveal(visible)
	}
	c.apply(res)
}

// Stop pauses the reveal and commits the visible text.
func (c *Controller) Stop() {
	c.mu.Lock()
	next, res := c.machine.Stop()
	c.machine = next
	stop := c.takeStopLocked(res)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.apply(res)
}

// Close cancels any timer without committing. The controller ignores all
// later calls.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	stop := c.stop
	c.stop = nil
	c.machine = Machine{gen: c.machine.gen + 1}
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Visible returns the text revealed so far.
func (c *Controller) Visible() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Visible()
}

func (c *Controller) takeStopLocked(res Result) func() {
	if res.Effect != EffectTimerStop {
		return nil
	}
	stop := c.stop
	c.stop = nil
	return stop
}

// apply delivers a commit and settles the machine.
func (c *Controller) apply(res Result) {
	if !res.Committed {
		return
	}
	if c.onCommit != nil {
		c.onCommit(res.Answer)
	}
	c.mu.Lock()
	c.machine = c.machine.Settle()
	c.mu.Unlock()
}
