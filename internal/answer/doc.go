// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer splits an answer into prose and fenced code blocks and
// tracks the transient "copied" state of code blocks.
//
// Fencing is all or nothing: unless the text holds a positive even number
// of ``` markers, the whole answer is one prose block. Malformed fencing
// degrades to plain prose instead of failing.
//
// # Usage
//
//	for _, b := range answer.Render(text) {
//		if b.Kind == answer.Code {
//			fmt.Println(b.Language, b.Body())
//		}
//	}
//
//	tracker := answer.NewCopyTracker(answer.SystemClipboard{})
//	token := tracker.Copy(answer.Key{Turn: 0, Block: 1}, block.Copy())
//	// ... two seconds later
//	tracker.Reset(token)
package answer
