// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typewriter reveals a finished answer one character per tick.
//
// Machine is a pure value: every transition returns the next Machine and a
// Result describing what the caller must do (start or stop its timer,
// commit an answer). It owns no clock, which lets the Bubble Tea loop drive
// it with tea.Tick messages and tests drive it by hand.
//
// Controller wraps a Machine with a real Scheduler for line-mode output.
//
// # States
//
//	Idle --Start(non-empty)--> Typing --last Tick / Stop--> Finalizing --Settle--> Idle
//	Idle --Start("")---------------------------------------> Finalizing
//
// A commit always happens on the transition into Finalizing. The caller
// stores the committed answer and then calls Settle.
package typewriter
