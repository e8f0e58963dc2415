// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the pieces of the devdose screen.

Components are plain values with a View or Render method; the chat model
owns them and feeds them data on every frame.

	Header     - "DevDose AI" title bar with backend and model
	Sidebar    - "+ New Chat", "Clear All Chats" and the session history
	AnswerView - one answer split into prose and highlighted code blocks
	StatusBar  - thinking/typing state, key hints and the last error

Code blocks carry a numbered copy badge ("[2] 📋 Copy") that flips to
"✅ Copied!" while the chat model's copy tracker says so.
*/
package components
