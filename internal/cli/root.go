// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/devdose-tui/internal/config"
	"github.com/jeranaias/devdose-tui/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// logToFile marks commands whose logs must stay off the terminal.
const logToFile = "log-to-file"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	backend    string
	model      string
	endpoint   string
}

// state is what the persistent pre-run prepares for a command.
type state struct {
	flags     globalFlags
	cfg       *config.Config
	logCloser io.Closer
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rt := &state{}

	root := &cobra.Command{
		Use:   "devdose",
		Short: "DevDose AI, a coding assistant for the terminal",
		Long: `DevDose AI answers coding questions in your terminal.

Answers are typed out character by character, code blocks are highlighted
and can be copied, and every chat is kept in a local history.`,
		Example: `  devdose                       Start the chat UI
  devdose ask "What is a goroutine?"
  devdose chat
  devdose history export --format markdown -o chats.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{logToFile: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.prepare(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			rt.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, rt)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.configPath, "config", "", "config file (default ~/.devdose/config.toml)")
	pf.StringVar(&rt.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&rt.flags.backend, "backend", "", "backend: http, genai or openai")
	pf.StringVar(&rt.flags.model, "model", "", "model name")
	pf.StringVar(&rt.flags.endpoint, "endpoint", "", "endpoint URL")

	root.AddCommand(
		newTUICmd(rt),
		newAskCmd(rt),
		newChatCmd(rt),
		newHistoryCmd(rt),
		newConfigCmd(rt),
		newVersionCmd(),
	)
	return root
}

// prepare loads the configuration and installs the logger.
func (rt *state) prepare(cmd *cobra.Command) error {
	cfg, err := rt.loadConfig()
	if err != nil {
		return err
	}
	rt.cfg = cfg
	config.SetGlobal(cfg)

	closer, err := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		File:       logPath(cfg),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		ToFile:     cmd.Annotations[logToFile] == "true",
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	rt.logCloser = closer

	log.Debug().
		Str("command", cmd.Name()).
		Str("backend", cfg.API.Backend).
		Str("storage", cfg.Storage.Backend).
		Msg("devdose starting")
	return nil
}

// loadConfig reads the config file and applies the flag overrides.
func (rt *state) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rt.flags.configPath != "" {
		cfg, err = config.LoadFromPath(rt.flags.configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
		}
	}

	if rt.flags.logLevel != "" {
		cfg.Log.Level = rt.flags.logLevel
	}
	if rt.flags.backend != "" {
		cfg.API.Backend = rt.flags.backend
	}
	if rt.flags.model != "" {
		cfg.API.Model = rt.flags.model
	}
	if rt.flags.endpoint != "" {
		cfg.API.Endpoint = rt.flags.endpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func (rt *state) close() {
	if rt.logCloser != nil {
		_ = rt.logCloser.Close()
		rt.logCloser = nil
	}
}

func logPath(cfg *config.Config) string {
	path, err := cfg.LogPath()
	if err != nil {
		return ""
	}
	return path
}
