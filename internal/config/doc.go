// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates devdose configuration.
//
// Sources, lowest precedence first:
//   - built-in defaults (Default)
//   - ~/.devdose/config.toml, or config.json when no TOML file exists
//   - .env in the working directory, then ~/.devdose/.env
//   - DEVDOSE_* environment variables (GEMINI_API_KEY also fills api.api_key)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		// cfg still holds defaults when only the file was unreadable
//	}
//	interval := cfg.TypingInterval()
//
// Dotted keys address single values for the "config get/set" commands:
//
//	v, _ := cfg.Get("typewriter.interval_ms")
//	_ = cfg.Set("api.backend", "genai")
package config
