// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea model for the devdose chat screen.
//
// Update is the single event loop. A submitted question goes through the
// orchestrator: Begin on the loop, Fetch in a tea.Cmd, Resolve when its
// answerMsg comes back. Typing ticks are tea.Tick messages stamped with
// the orchestrator's timer generation, so a tick that outlives a Stop or a
// new answer is dropped.
//
// # Keys
//
//	enter        send            alt+enter   newline
//	esc          pause typing    ctrl+b      toggle history
//	tab          focus history   ctrl+n      new chat
//	alt+1..9     copy code N     ctrl+y      copy last code block
//	pgup/pgdown  scroll          f1          help
//	ctrl+c       quit
package chat
