// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/devdose-tui/internal/backend"
	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/typewriter"
)

// Request is one accepted question.
type Request struct {
	ID        uint64
	SessionID string
	Question  string
}

// Response is the outcome of Fetch.
type Response struct {
	Request Request
	Answer  string
	Err     error
	Took    time.Duration
}

// Orchestrator owns the loading flag, the typewriter and the link between
// a request and the session that asked it.
type Orchestrator struct {
	mu sync.Mutex

	store *session.Store
	gen   backend.Generator

	sched    typewriter.Scheduler
	interval time.Duration

	machine typewriter.Machine
	ctrl    *typewriter.Controller

	loading bool
	nextID  uint64
	current Request
	lastErr error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithScheduler sets the scheduler Ask reveals answers on.
func WithScheduler(s typewriter.Scheduler) Option {
	return func(o *Orchestrator) { o.sched = s }
}

// WithInterval sets the delay between revealed characters for Ask.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// New creates an orchestrator writing answers into store.
func New(store *session.Store, gen backend.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		gen:      gen,
		sched:    typewriter.TickerScheduler{},
		interval: typewriter.DefaultIntervalMs * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// =============================================================================
// EVENT-LOOP API
// =============================================================================

// Begin accepts question if no request is loading and no answer is typing.
// It marks loading and appends a pending turn to the active session.
func (o *Orchestrator) Begin(question string) (Request, bool) {
	question = strings.TrimSpace(question)

	o.mu.Lock()
	defer o.mu.Unlock()

	if question == "" || o.loading || o.typingLocked() {
		return Request{}, false
	}

	idx := o.store.AppendTurn(o.store.Active(), question)
	sess, _ := o.store.Session(idx)

	o.nextID++
	o.current = Request{ID: o.nextID, SessionID: sess.ID, Question: question}
	o.loading = true

	log.Debug().
		Uint64("request", o.current.ID).
		Str("session", sess.ID).
		Msg("question accepted")
	return o.current, true
}

// Fetch calls the backend. It touches no orchestrator state and is safe to
// run off the event loop.
func (o *Orchestrator) Fetch(ctx context.Context, req Request) Response {
	start := time.Now()
	answer, err := o.gen.Generate(ctx, req.Question)
	return Response{
		Request: req,
		Answer:  norm.NFC.String(answer),
		Err:     err,
		Took:    time.Since(start),
	}
}

// Resolve clears loading and hands the answer to the typewriter. The
// returned Result asks the caller to start a timer when typing began.
func (o *Orchestrator) Resolve(resp Response) typewriter.Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	source, keep := o.settleLocked(resp)
	if !keep {
		return typewriter.Result{}
	}

	next, res := o.machine.Settle().Start(source)
	o.machine = next
	o.applyLocked(res)
	return res
}

// Tick advances the reveal by one character.
func (o *Orchestrator) Tick(gen uint64) typewriter.Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	next, res := o.machine.Tick(gen)
	o.machine = next
	o.applyLocked(res)
	return res
}

// Stop commits whatever has been revealed so far.
func (o *Orchestrator) Stop() typewriter.Result {
	o.mu.Lock()
	ctrl := o.ctrl
	if ctrl != nil {
		o.mu.Unlock()
		ctrl.Stop()
		return typewriter.Result{}
	}
	defer o.mu.Unlock()

	next, res := o.machine.Stop()
	o.machine = next
	o.applyLocked(res)
	return res
}

// settleLocked clears loading for resp and picks the text to reveal. keep
// is false when resp is stale or its session has been cleared away.
func (o *Orchestrator) settleLocked(resp Response) (source string, keep bool) {
	if !o.loading || resp.Request.ID != o.current.ID {
		return "", false
	}
	o.loading = false

	logger := log.With().
		Uint64("request", resp.Request.ID).
		Str("session", resp.Request.SessionID).
		Str("backend", o.gen.Name()).
		Logger()

	if o.store.IndexOf(resp.Request.SessionID) < 0 {
		logger.Debug().Msg("asking session is gone, discarding answer")
		return "", false
	}

	if resp.Err != nil {
		o.lastErr = resp.Err
		logger.Error().Err(resp.Err).Dur("took", resp.Took).Msg("could not get an answer")
		return "", true
	}

	o.lastErr = nil
	logger.Debug().Int("chars", len([]rune(resp.Answer))).Dur("took", resp.Took).Msg("answer received")
	return resp.Answer, true
}

func (o *Orchestrator) applyLocked(res typewriter.Result) {
	if !res.Committed {
		return
	}
	o.commit(o.current, res.Answer)
	o.machine = o.machine.Settle()
}

func (o *Orchestrator) commit(req Request, answer string) {
	if !o.store.SetLastAnswerByID(req.SessionID, answer) {
		log.Debug().Uint64("request", req.ID).Msg("answer already saved or session gone")
	}
}

// =============================================================================
// SYNCHRONOUS API
// =============================================================================

// Ask runs question to completion, calling reveal with the visible text on
// every tick. Cancelling ctx while typing stops the reveal and commits the
// visible prefix. ok is false when the guards rejected the question.
func (o *Orchestrator) Ask(ctx context.Context, question string, reveal func(string)) (answer string, ok bool) {
	req, ok := o.Begin(question)
	if !ok {
		return "", false
	}

	resp := o.Fetch(ctx, req)

	o.mu.Lock()
	source, keep := o.settleLocked(resp)
	if !keep {
		o.mu.Unlock()
		return "", true
	}

	done := make(chan string, 1)
	ctrl := typewriter.NewController(o.sched, o.interval, reveal, func(committed string) {
		o.commit(req, committed)
		done <- committed
	})
	o.ctrl = ctrl
	o.mu.Unlock()

	ctrl.Start(source)

	select {
	case answer = <-done:
	case <-ctx.Done():
		ctrl.Stop()
		answer = <-done
	}

	ctrl.Close()
	o.mu.Lock()
	o.ctrl = nil
	o.mu.Unlock()
	return answer, true
}

// AskInstant is Ask without the animation. The answer goes through the
// same typewriter, ticked to the end at once, for output that is not a
// terminal.
func (o *Orchestrator) AskInstant(ctx context.Context, question string) (answer string, ok bool) {
	req, ok := o.Begin(question)
	if !ok {
		return "", false
	}

	res := o.Resolve(o.Fetch(ctx, req))
	for !res.Committed && o.Typing() {
		res = o.Tick(o.Generation())
	}
	return res.Answer, true
}

// =============================================================================
// STATE
// =============================================================================

// Loading reports whether a request is in flight.
func (o *Orchestrator) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

// Typing reports whether an answer is being revealed.
func (o *Orchestrator) Typing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.typingLocked()
}

func (o *Orchestrator) typingLocked() bool {
	if o.ctrl != nil && o.ctrl.State() == typewriter.Typing {
		return true
	}
	return o.machine.Typing()
}

// Busy reports whether a new question would be rejected.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading || o.typingLocked()
}

// Visible returns the answer text revealed so far.
func (o *Orchestrator) Visible() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl != nil {
		return o.ctrl.Visible()
	}
	return o.machine.Visible()
}

// Generation identifies the live typing timer. Ticks carrying any other
// value are stale.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Generation()
}

// Progress returns revealed and total characters of the answer typing.
func (o *Orchestrator) Progress() (revealed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Progress()
}

// Current returns the most recent accepted request.
func (o *Orchestrator) Current() Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// LastError returns the error from the most recent request, if it failed.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Generator returns the backend in use.
func (o *Orchestrator) Generator() backend.Generator {
	return o.gen
}
