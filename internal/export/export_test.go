// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/devdose-tui/internal/model"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func sample() model.Collection {
	return model.Collection{
		{ID: "a", Turns: []model.Turn{
			{Question: "How do I print in Go?", Answer: "Use fmt:\n```go\nfmt.Println(\"hi\")\n```"},
			{Question: "And in Python?", Answer: ""},
		}},
		{ID: "b", Turns: []model.Turn{}},
		{ID: "c", Turns: []model.Turn{
			{Question: "What is #1 *priority*?", Answer: "Tests."},
		}},
	}
}

// IDs are regenerated on decode.
var ignoreIDs = cmpopts.IgnoreFields(model.Session{}, "ID")

func opts() *Options {
	o := DefaultOptions()
	o.Now = fixedNow
	return o
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{".md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"html", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSON_RoundTripKeepsEmptySessions(t *testing.T) {
	in := sample()
	data, err := NewJSONExporter(opts()).Export(in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n"))

	out, err := Import(data)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out, ignoreIDs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImport_BrowserDump(t *testing.T) {
	dump := `[[{"q":"What is a goroutine?","a":"A lightweight thread."}],[]]`

	got, err := Import([]byte(dump))
	require.NoError(t, err)

	want := model.Collection{
		{Turns: []model.Turn{{Question: "What is a goroutine?", Answer: "A lightweight thread."}}},
		{Turns: []model.Turn{}},
	}
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("import mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestImport_Empty(t *testing.T) {
	got, err := Import([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImport_Rejects(t *testing.T) {
	for name, input := range map[string]string{
		"broken json":    `[[{"q":`,
		"wrong shape":    `[{"q":"x"}]`,
		"plain text":     "hello there",
		"yaml no key":    "generator: devdose\n",
		"yaml bad types": "sessions: 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(input))
			assert.ErrorIs(t, err, ErrUnrecognized)
		})
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	in := sample()
	data, err := NewYAMLExporter(opts()).Export(in)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "generator: devdose")
	assert.Contains(t, text, "2025-03-14T09:26:53Z")
	assert.Contains(t, text, "question: How do I print in Go?")

	out, err := Import(data)
	require.NoError(t, err)

	want := model.Collection{in[0], in[2]}
	if diff := cmp.Diff(want, out, ignoreIDs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdown_Layout(t *testing.T) {
	data, err := NewMarkdownExporter(opts()).Export(sample())
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "---\ntitle: DevDose AI Chat History\n"))
	assert.Contains(t, text, "sessions: 2\n")
	assert.Contains(t, text, "turns: 3\n")
	assert.Contains(t, text, "## 1. How do I print in Go?")
	assert.Contains(t, text, "```go\nfmt.Println(\"hi\")\n```", "code fences survive")
	assert.Contains(t, text, labelNoAnswer)
	assert.Contains(t, text, `## 2. What is \#1 \*priority\*?`)
	assert.Equal(t, 3, strings.Count(text, "### You\n\n"))
	assert.Equal(t, 3, strings.Count(text, "### DevDose AI\n\n"))
}

func TestMarkdown_NoMetadata(t *testing.T) {
	o := opts()
	o.IncludeMetadata = false
	data, err := NewMarkdownExporter(o).Export(sample())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# DevDose AI Chat History"))
}

func TestMarkdown_NothingToExport(t *testing.T) {
	_, err := NewMarkdownExporter(opts()).Export(model.Collection{model.NewSession()})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportToFile(t *testing.T) {
	o := opts()
	o.OutputDir = filepath.Join(t.TempDir(), "out")

	path, err := ExportToFile(sample(), NewJSONExporter(o), o)
	require.NoError(t, err)
	assert.Equal(t, "devdose_How_do_I_print_in_Go-_20250314_092653.json", filepath.Base(path))

	back, err := ImportFile(path)
	require.NoError(t, err)
	assert.Len(t, back, 3)
}

func TestImportFile_Missing(t *testing.T) {
	_, err := ImportFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	existing := model.Collection{{ID: "old", Turns: []model.Turn{{Question: "old"}}}}
	imported := model.Collection{
		{ID: "new", Turns: []model.Turn{{Question: "new", Answer: "yes"}}},
		{ID: "blank", Turns: []model.Turn{}},
	}

	got := Merge(existing, imported)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "history", sanitizeFilename(""))
	assert.Equal(t, 40, len([]rune(sanitizeFilename(strings.Repeat("é", 100)))))
}
