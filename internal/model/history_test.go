// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignoreIDs = cmpopts.IgnoreFields(Session{}, "ID")

func TestDecode_BrowserFormat(t *testing.T) {
	raw := `[[{"q":"2+2?","a":"4"},{"q":"and 3+3?","a":"6"}],[],[{"q":"pending","a":""}]]`

	got, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := Collection{
		{Turns: []Turn{{Question: "2+2?", Answer: "4"}, {Question: "and 3+3?", Answer: "6"}}},
		{Turns: []Turn{}},
		{Turns: []Turn{{Question: "pending"}}},
	}
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, s := range got {
		if s.ID == "" || seen[s.ID] {
			t.Errorf("session ID %q missing or duplicated", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestDecode_EdgeCases(t *testing.T) {
	for _, in := range []string{"", "   ", "[]"} {
		c, err := Decode([]byte(in))
		if err != nil {
			t.Errorf("Decode(%q) error: %v", in, err)
		}
		if c == nil || len(c) != 0 {
			t.Errorf("Decode(%q) = %#v, want empty collection", in, c)
		}
	}

	c, err := Decode([]byte(`[null,[{"q":"x"}]]`))
	if err != nil {
		t.Fatalf("Decode with null session: %v", err)
	}
	if len(c) != 2 || !c[0].IsEmpty() || c[1].First().Question != "x" {
		t.Errorf("unexpected decode: %#v", c)
	}

	if _, err := Decode([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("expected error for object input")
	}
	if _, err := Decode([]byte(`[[{"q":`)); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	original := Collection{
		NewSession(),
		{ID: "a", Turns: []Turn{{Question: "q1", Answer: "a1"}}},
		{ID: "b", Turns: []Turn{{Question: "emoji 👋", Answer: "```go\nfmt.Println(\"hi\")\n```"}}},
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(original, decoded, ignoreIDs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Shape(t *testing.T) {
	data, err := Encode(Collection{{ID: "x", Turns: []Turn{{Question: "hi", Answer: "yo"}}}, {ID: "y"}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `[[{"q":"hi","a":"yo"}],[]]`; got != want {
		t.Errorf("Encode = %s, want %s", got, want)
	}

	data, _ = Encode(nil)
	if string(data) != "[]" {
		t.Errorf("Encode(nil) = %s, want []", data)
	}
}

func TestCollection_CloneIsDeep(t *testing.T) {
	c := Collection{{ID: "a", Turns: []Turn{{Question: "q", Answer: ""}}}}
	clone := c.Clone()
	clone[0].Turns[0].Answer = "changed"

	if c[0].Turns[0].Answer != "" {
		t.Error("Clone shares turn storage with the original")
	}
}

func TestCollection_IndexOfAndNonEmpty(t *testing.T) {
	c := Collection{{ID: "a"}, {ID: "b", Turns: []Turn{{Question: "q"}}}}

	if got := c.IndexOf("b"); got != 1 {
		t.Errorf("IndexOf(b) = %d, want 1", got)
	}
	if got := c.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}
	if got := c.IndexOf(""); got != -1 {
		t.Errorf("IndexOf(\"\") = %d, want -1", got)
	}
	if got := c.NonEmpty(); got != 1 {
		t.Errorf("NonEmpty = %d, want 1", got)
	}
}

func TestSession_FirstLast(t *testing.T) {
	var empty Session
	if empty.First() != (Turn{}) || empty.Last() != (Turn{}) {
		t.Error("empty session should return zero turns")
	}

	s := Session{Turns: []Turn{{Question: "one"}, {Question: "two", Answer: "2"}}}
	if s.First().Question != "one" || s.Last().Question != "two" {
		t.Errorf("First/Last = %v/%v", s.First(), s.Last())
	}
	if !s.First().Pending() || s.Last().Pending() {
		t.Error("Pending reports wrong state")
	}
}
