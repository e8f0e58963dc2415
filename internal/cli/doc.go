// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the devdose command line.
//
// # Commands
//
//	devdose                    Start the TUI (default)
//	devdose tui                Start the TUI
//	devdose ask "question"     Ask once; the answer is typed to stdout
//	devdose chat               Line-mode chat with input history
//	devdose history <sub>      list, show, clear, export, import
//	devdose config <sub>       show, path, init, get, set, keys
//	devdose version            Print version information
//
// Global flags --config, --log-level, --backend, --model and --endpoint
// override the configuration for one run.
//
// The TUI owns the terminal, so it logs to the rotating log file. Every
// other command logs to stderr.
package cli
