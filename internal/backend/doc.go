// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend turns a question into a complete answer.
//
// Every backend implements Generator. A request either yields the whole
// answer text or an error; there is no streaming, the typewriter supplies
// the incremental reveal. Missing fields in an otherwise valid response
// yield an empty answer rather than an error.
//
// # Backends
//
//   - http:   POST {"contents":[{"parts":[{"text":q}]}]} to a Gemini-style
//     generateContent endpoint (the default)
//   - genai:  the Google Gen AI SDK
//   - openai: any OpenAI-compatible chat completions server
//
// New builds the configured backend and wraps it in a rate limiter.
package backend
