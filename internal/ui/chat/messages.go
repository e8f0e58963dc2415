// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/devdose-tui/internal/orchestrator"
)

// answerMsg carries a finished backend call back to the loop.
type answerMsg struct {
	resp orchestrator.Response
}

// typeTickMsg reveals one more character of the answer timer gen drives.
type typeTickMsg struct {
	gen uint64
}

// copyResetMsg ends the "Copied!" acknowledgment of one copy.
type copyResetMsg struct {
	token uint64
}

// historyChangedMsg reports that another process rewrote the history.
type historyChangedMsg struct{}

// noticeClearMsg clears a transient status notice.
type noticeClearMsg struct {
	seq int
}
