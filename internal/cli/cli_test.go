// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/devdose-tui/internal/answer"
	"github.com/jeranaias/devdose-tui/internal/config"
	"github.com/jeranaias/devdose-tui/internal/export"
)

// =============================================================================
// FIXTURES
// =============================================================================

// geminiServer answers every request with reply in the generateContent shape.
func geminiServer(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"error":{"message":"server unhappy"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": reply}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// isolate points the config directory at a temp dir and clears
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("DEVDOSE_HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "DEVDOSE_API_KEY", "DEVDOSE_ENDPOINT", "DEVDOSE_BACKEND", "DEVDOSE_STORAGE_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	config.ResetGlobalForTesting()
	return home
}

type result struct {
	out string
	err error
}

// run executes devdose with args and stdin.
func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), err: err}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsAnswerAndSavesTurn(t *testing.T) {
	isolate(t)
	srv := geminiServer(t, http.StatusOK, "4")

	res := run(t, "", "--endpoint", srv.URL, "ask", "2+2?")
	require.NoError(t, res.err)
	assert.Equal(t, "4\n", res.out)

	res = run(t, "", "history", "show", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "2+2?")
	assert.Contains(t, res.out, "4")
}

func TestAsk_ReadsStdin(t *testing.T) {
	isolate(t)
	srv := geminiServer(t, http.StatusOK, "piped answer")

	res := run(t, "  what does this do?\n", "--endpoint", srv.URL, "ask")
	require.NoError(t, res.err)
	assert.Equal(t, "piped answer\n", res.out)
}

func TestAsk_NoQuestion(t *testing.T) {
	isolate(t)
	res := run(t, "   ", "ask")
	assert.ErrorIs(t, res.err, errNoQuestion)
}

func TestAsk_BackendFailure(t *testing.T) {
	isolate(t)
	srv := geminiServer(t, http.StatusInternalServerError, "")

	res := run(t, "", "--endpoint", srv.URL, "ask", "hello")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "server unhappy")

	// The question stays in history with an empty answer.
	res = run(t, "", "history", "show", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "(no answer)")
}

func TestAsk_NewSession(t *testing.T) {
	isolate(t)
	srv := geminiServer(t, http.StatusOK, "ok")

	require.NoError(t, run(t, "", "--endpoint", srv.URL, "ask", "first").err)
	require.NoError(t, run(t, "", "--endpoint", srv.URL, "ask", "second").err)
	require.NoError(t, run(t, "", "--endpoint", srv.URL, "ask", "--new", "third").err)

	res := run(t, "", "history", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "third")
	assert.NotContains(t, res.out, "second", "entries are titled by their first question")
	assert.Less(t, strings.Index(res.out, "third"), strings.Index(res.out, "first"), "newest chat first")
}

func TestAsk_TypedPrintsWholeAnswer(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "single character", reply: "4"},
		{name: "word", reply: "four"},
		{name: "multibyte", reply: "café ☕"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			srv := geminiServer(t, http.StatusOK, tt.reply)

			cfg := config.Default()
			cfg.API.Endpoint = srv.URL
			cfg.Typewriter.IntervalMs = 1
			a, err := openApp(context.Background(), cfg)
			require.NoError(t, err)
			defer a.Close()

			var out bytes.Buffer
			require.NoError(t, ask(context.Background(), a.orch, "2+2?", &out, true))
			assert.Equal(t, tt.reply+"\n", out.String())
		})
	}
}

func TestRevealWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &revealWriter{out: &buf}
	for _, v := range []string{"h", "he", "he", "hé", "hél"} {
		w.reveal(v)
	}
	assert.Equal(t, "hél", buf.String())
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_ImportExport(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "local-storage.json")
	require.NoError(t, os.WriteFile(dump, []byte(`[[{"q":"Q1","a":"A1"}],[],[{"q":"Q2","a":""}]]`), 0600))

	res := run(t, "", "history", "import", dump)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "2 chats")

	res = run(t, "", "history", "export")
	require.NoError(t, res.err)
	got, err := export.Import([]byte(res.out))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Q1", got[0].First().Question)

	md := filepath.Join(dir, "out.md")
	res = run(t, "", "history", "export", "--format", "md", "-o", md)
	require.NoError(t, res.err)
	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## 1. Q1")
}

func TestHistory_ImportMergesUnlessReplace(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	one := filepath.Join(dir, "one.json")
	require.NoError(t, os.WriteFile(one, []byte(`[[{"q":"one","a":"1"}]]`), 0600))

	require.NoError(t, run(t, "", "history", "import", one).err)
	require.NoError(t, run(t, "", "history", "import", one).err)
	res := run(t, "", "history", "list")
	assert.Equal(t, 2, strings.Count(res.out, "one"))

	require.NoError(t, run(t, "", "history", "import", "--replace", one).err)
	res = run(t, "", "history", "list")
	assert.Equal(t, 1, strings.Count(res.out, "one"))
}

func TestHistory_Clear(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	dump := filepath.Join(dir, "h.json")
	require.NoError(t, os.WriteFile(dump, []byte(`[[{"q":"keep me?","a":"no"}]]`), 0600))
	require.NoError(t, run(t, "", "history", "import", dump).err)

	res := run(t, "n\n", "history", "clear")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Nothing deleted")
	assert.Contains(t, run(t, "", "history").out, "keep me?")

	res = run(t, "y\n", "history", "clear")
	require.NoError(t, res.err)
	assert.Contains(t, run(t, "", "history").out, "No saved chats")
}

func TestHistory_ShowOutOfRange(t *testing.T) {
	isolate(t)
	res := run(t, "", "history", "show", "3")
	assert.Error(t, res.err)
}

// =============================================================================
// CONFIG / VERSION
// =============================================================================

func TestConfig_SetGetInit(t *testing.T) {
	home := isolate(t)

	res := run(t, "", "config", "set", "api.model", "gemini-1.5-pro")
	require.NoError(t, res.err)

	res = run(t, "", "config", "get", "api.model")
	require.NoError(t, res.err)
	assert.Equal(t, "gemini-1.5-pro\n", res.out)

	res = run(t, "", "config", "path")
	require.NoError(t, res.err)
	assert.Equal(t, filepath.Join(home, "config.toml")+"\n", res.out)

	res = run(t, "", "config", "init")
	assert.Error(t, res.err, "init refuses to overwrite")
	require.NoError(t, run(t, "", "config", "init", "--force").err)

	res = run(t, "", "config", "get", "api.model")
	require.NoError(t, res.err)
	assert.Equal(t, config.Default().API.Model+"\n", res.out)
}

func TestConfig_SetRejectsInvalid(t *testing.T) {
	isolate(t)
	res := run(t, "", "config", "set", "typewriter.interval_ms", "0")
	assert.Error(t, res.err)
	res = run(t, "", "config", "set", "api.nope", "1")
	assert.Error(t, res.err)
}

func TestConfig_ShowRedactsKey(t *testing.T) {
	isolate(t)
	t.Setenv("DEVDOSE_API_KEY", "secret-key")

	res := run(t, "", "config", "show")
	require.NoError(t, res.err)
	assert.NotContains(t, res.out, "secret-key")
	assert.Contains(t, res.out, "[REDACTED]")
}

func TestGlobalFlags_Override(t *testing.T) {
	isolate(t)
	res := run(t, "", "--model", "flag-model", "--backend", "openai", "config", "get", "api.model")
	require.NoError(t, res.err)
	assert.Equal(t, "flag-model\n", res.out)

	res = run(t, "", "--backend", "carrier-pigeon", "version")
	assert.Error(t, res.err)
}

func TestVersion(t *testing.T) {
	isolate(t)
	res := run(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "devdose "+Version)
}

// =============================================================================
// LINE-MODE CHAT
// =============================================================================

type scriptedInput struct {
	lines []string
}

func (s *scriptedInput) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type recordingClipboard struct {
	writes []string
}

func (c *recordingClipboard) WriteAll(text string) error {
	c.writes = append(c.writes, text)
	return nil
}

func TestChatREPL(t *testing.T) {
	isolate(t)
	srv := geminiServer(t, http.StatusOK, "Run:\n```sh\ngo test ./...\n```")

	cfg := config.Default()
	cfg.API.Endpoint = srv.URL
	a, err := openApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	clip := &recordingClipboard{}
	var out bytes.Buffer
	repl := &chatREPL{app: a, out: &out, copies: answer.NewCopyTracker(clip)}

	in := &scriptedInput{lines: []string{
		"/help",
		"how do I test?",
		"/copy 1",
		"/copy 9",
		"/new",
		"/history",
		"/open 1",
		"/bogus",
		"/quit",
		"never read",
	}}
	require.NoError(t, repl.run(context.Background(), in))

	text := out.String()
	assert.Contains(t, text, "/open N")
	assert.Contains(t, text, "go test ./...")
	assert.Equal(t, []string{"sh\ngo test ./..."}, clip.writes)
	assert.Contains(t, text, "not between 1 and 1")
	assert.Contains(t, text, "unknown command /bogus")
	assert.Equal(t, []string{"never read"}, in.lines)

	// /new left an empty chat in front; /open 1 selected the asked one.
	assert.Equal(t, 1, a.store.Active())
	assert.Equal(t, 2, a.store.Len())
}

func TestChatREPL_EOFEnds(t *testing.T) {
	isolate(t)
	a, err := openApp(context.Background(), config.Default())
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	repl := &chatREPL{app: a, out: &out, copies: answer.NewCopyTracker(&recordingClipboard{})}
	assert.NoError(t, repl.run(context.Background(), &scriptedInput{}))
}

func TestNumberArg(t *testing.T) {
	n, err := numberArg([]string{"2"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, args := range [][]string{nil, {"0"}, {"4"}, {"x"}, {"1", "2"}} {
		_, err := numberArg(args, 3)
		assert.Error(t, err, "%v", args)
	}
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("yes\n"), &out, "ok?"))
	assert.False(t, confirm(strings.NewReader("\n"), &out, "ok?"))
	assert.False(t, confirm(strings.NewReader(""), &out, "ok?"))
	assert.Contains(t, out.String(), "ok? [y/N]")
}
