// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator runs one question from submission to committed
// answer.
//
// The event-loop API is split so nothing blocks the UI:
//
//	req, ok := o.Begin(question)          // on the loop
//	resp := o.Fetch(ctx, req)             // in a tea.Cmd goroutine
//	res := o.Resolve(resp)                // back on the loop
//	res = o.Tick(res.Generation)          // once per typing tick
//
// Ask wraps the same steps for line-mode callers and reveals the answer on
// a typewriter.Controller.
//
// Guard violations (blank question, a request already loading, an answer
// still typing) are silent no-ops. Failures never escape: the answer is
// left empty and the error is logged.
package orchestrator
