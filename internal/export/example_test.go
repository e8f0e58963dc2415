// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"

	"github.com/jeranaias/devdose-tui/internal/export"
)

// ExampleImport shows reading a dump of the browser client's local storage.
func ExampleImport() {
	dump := `[[{"q":"2+2?","a":"4"}],[{"q":"Hi","a":""}]]`

	sessions, err := export.Import([]byte(dump))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for i, s := range sessions {
		fmt.Printf("%d: %s -> %q\n", i, s.First().Question, s.First().Answer)
	}
	// Output:
	// 0: 2+2? -> "4"
	// 1: Hi -> ""
}
