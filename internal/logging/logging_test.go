// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestSetup_Console(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) }()

	var buf bytes.Buffer
	closer, err := Setup(Options{Level: "debug", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Str("session", "abc").Msg("loaded history")
	assert.Contains(t, buf.String(), "loaded history")
	assert.Contains(t, buf.String(), "session=")
}

func TestSetup_File(t *testing.T) {
	prev := log.Logger
	defer func() { log.Logger = prev; zerolog.SetGlobalLevel(zerolog.InfoLevel) }()

	path := filepath.Join(t.TempDir(), "logs", "devdose.log")
	closer, err := Setup(Options{Level: "info", File: path, MaxSizeMB: 1, ToFile: true})
	require.NoError(t, err)

	log.Info().Str("backend", "http").Msg("request sent")
	log.Debug().Msg("filtered out")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"request sent"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestSetup_FileWithoutPath(t *testing.T) {
	_, err := Setup(Options{ToFile: true})
	assert.Error(t, err)
}
