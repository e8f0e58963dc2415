// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package typewriter

// DefaultIntervalMs is the reveal speed when none is configured.
const DefaultIntervalMs = 30

// State is the phase of the reveal.
type State int

const (
	Idle State = iota
	Typing
	Finalizing
)

func (s State) String() string {
	switch s {
	case Typing:
		return "typing"
	case Finalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// Effect is the timer action a transition asks for.
type Effect int

const (
	EffectNone Effect = iota
	EffectTimerStart
	EffectTimerStop
)

// Result describes the side effects of one transition.
type Result struct {
	Effect Effect

	// Generation identifies the timer to start. Ticks carrying any other
	// generation are ignored, so starting a timer cancels older ones.
	Generation uint64

	// Committed is set when the transition produced the final answer.
	Committed bool
	Answer    string
}

// Machine is the reveal state. The zero value is Idle.
type Machine struct {
	state  State
	source []rune
	cursor int
	gen    uint64
}

// State returns the current phase.
func (m Machine) State() State { return m.state }

// Typing reports whether characters are still being revealed.
func (m Machine) Typing() bool { return m.state == Typing }

// Generation returns the generation of the current timer.
func (m Machine) Generation() uint64 { return m.gen }

// Visible returns the characters revealed so far.
func (m Machine) Visible() string {
	return string(m.source[:m.cursor])
}

// Progress returns revealed and total character counts.
func (m Machine) Progress() (revealed, total int) {
	return m.cursor, len(m.source)
}

// Start begins revealing source with the cursor before its first character.
// An empty source commits "" at once without entering Typing.
func (m Machine) Start(source string) (Machine, Result) {
	m.gen++
	if source == "" {
		m.source = nil
		m.cursor = 0
		m.state = Finalizing
		return m, Result{Committed: true, Answer: ""}
	}

	m.source = []rune(source)
	m.cursor = 0
	m.state = Typing
	return m, Result{Effect: EffectTimerStart, Generation: m.gen}
}

// Tick reveals one more character. The tick that reveals the last one
// commits the full source. Ticks from another generation, or outside
// Typing, change nothing.
func (m Machine) Tick(gen uint64) (Machine, Result) {
	if m.state != Typing || gen != m.gen {
		return m, Result{}
	}

	m.cursor++
	if m.cursor < len(m.source) {
		return m, Result{}
	}
	return m.finish()
}

// Stop pauses the reveal and commits whatever is visible.
func (m Machine) Stop() (Machine, Result) {
	if m.state != Typing {
		return m, Result{}
	}
	return m.finish()
}

func (m Machine) finish() (Machine, Result) {
	answer := m.Visible()
	m.state = Finalizing
	// Orphan any tick still in flight.
	m.gen++
	return m, Result{Effect: EffectTimerStop, Committed: true, Answer: answer}
}

// Settle returns to Idle and clears the visible buffer once the caller has
// stored the commit.
func (m Machine) Settle() Machine {
	if m.state == Typing {
		return m
	}
	m.state = Idle
	m.source = nil
	m.cursor = 0
	return m
}
