// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/devdose-tui/internal/answer"
	"github.com/jeranaias/devdose-tui/internal/config"
	"github.com/jeranaias/devdose-tui/internal/orchestrator"
	"github.com/jeranaias/devdose-tui/internal/session"
	"github.com/jeranaias/devdose-tui/internal/storage"
	"github.com/jeranaias/devdose-tui/internal/typewriter"
	"github.com/jeranaias/devdose-tui/internal/ui/components"
	"github.com/jeranaias/devdose-tui/internal/ui/styles"
)

// Focus is the part of the screen receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
)

// Options wires the chat model to the rest of the program.
type Options struct {
	Config       *config.Config
	Theme        *styles.Theme
	Store        *session.Store
	Orchestrator *orchestrator.Orchestrator

	// Clipboard defaults to the system clipboard.
	Clipboard answer.Clipboard

	// Watcher, when set, reloads history written by another process.
	Watcher *storage.Watcher
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme

	store  *session.Store
	orch   *orchestrator.Orchestrator
	copies *answer.CopyTracker
	watch  *storage.Watcher

	// Components
	header    *components.Header
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	answers   components.AnswerView
	viewport  viewport.Model
	input     textarea.Model
	spinner   spinner.Model
	help      help.Model
	keyMap    KeyMap

	width       int
	height      int
	sidebarOpen bool
	focus       Focus
	showHelp    bool

	// codeRefs are the copy targets of the conversation on screen, in
	// badge order.
	codeRefs []components.CodeRef

	// pendingReload defers an external history change until the current
	// answer has been committed.
	pendingReload bool

	notice    string
	noticeSeq int
	quitting  bool
}

// New creates the chat model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	if theme.Width == 0 {
		theme.SetSize(80, 24)
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = answer.SystemClipboard{}
	}

	ta := textarea.New()
	ta.Placeholder = "Ask DevDose anything..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 8000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(styles.ThinkingSpinner),
		spinner.WithStyle(theme.Spinner),
	)

	header := components.NewHeader(theme)
	if opts.Orchestrator != nil {
		header.Backend = opts.Orchestrator.Generator().Name()
	}
	header.Model = cfg.API.Model

	sidebar := components.NewSidebar(theme)

	m := Model{
		cfg:       cfg,
		theme:     theme,
		store:     opts.Store,
		orch:      opts.Orchestrator,
		copies:    answer.NewCopyTracker(clip),
		watch:     opts.Watcher,
		header:    header,
		sidebar:   sidebar,
		statusBar: components.NewStatusBar(theme),
		answers: components.AnswerView{
			Theme:       theme,
			Highlighter: components.NewHighlighter(theme.CodeStyle(cfg.UI.CodeStyle), theme.ColorProfile),
			Prose:       components.NewProseRenderer(cfg.UI.ProseRenderer, theme),
		},
		viewport:    viewport.New(80, 20),
		input:       ta,
		spinner:     sp,
		help:        help.New(),
		keyMap:      DefaultKeyMap(),
		width:       80,
		height:      24,
		sidebarOpen: cfg.UI.SidebarOpen,
	}
	m.layout()
	m.refresh(true)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the history watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, watchCmd(m.watch))
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		m.refresh(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case answerMsg:
		return m.handleAnswer(msg)

	case typeTickMsg:
		return m.handleTypeTick(msg)

	case copyResetMsg:
		if m.copies.Reset(msg.token) {
			m.refresh(false)
		}
		return m, nil

	case historyChangedMsg:
		return m.handleHistoryChanged()

	case noticeClearMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		// Let the spinner chain die out once loading ends.
		if !m.orch.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh(true)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m.quit()

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		m.refresh(false)
		return m, nil

	case key.Matches(msg, m.keyMap.Sidebar):
		m.sidebarOpen = !m.sidebarOpen
		if !m.sidebarOpen {
			m.setFocus(FocusInput)
		}
		m.layout()
		m.refresh(false)
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		m.newChat()
		return m, nil

	case key.Matches(msg, m.keyMap.Copy):
		if len(msg.Runes) == 0 {
			return m, nil
		}
		return m.copyNumbered(int(msg.Runes[len(msg.Runes)-1] - '0'))

	case key.Matches(msg, m.keyMap.CopyLast):
		if len(m.codeRefs) == 0 {
			return m, nil
		}
		return m.copyNumbered(m.codeRefs[len(m.codeRefs)-1].Number)

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Stop):
		if m.orch.Typing() {
			m.orch.Stop()
			return m, m.afterCommit()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Focus):
		if m.sidebarOpen {
			m.setFocus(FocusSidebar)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, m.keyMap.Back):
		m.setFocus(FocusInput)
	case key.Matches(msg, m.keyMap.Select):
		row, idx := m.sidebar.Selected()
		switch row {
		case components.RowNewChat:
			m.newChat()
		case components.RowClearAll:
			m.clearAll()
		case components.RowSession:
			m.store.Select(idx)
			m.closeSidebarIfNarrow()
			m.setFocus(FocusInput)
			m.refresh(true)
		}
	}
	return m, nil
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.sidebar.Focused = f == FocusSidebar
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input as a question. Guard failures leave the input as
// typed.
func (m Model) submit() (tea.Model, tea.Cmd) {
	req, ok := m.orch.Begin(m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.refresh(true)

	return m, tea.Batch(
		fetchCmd(m.orch, req, m.cfg.Timeout()),
		m.spinner.Tick,
	)
}

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	res := m.orch.Resolve(msg.resp)
	if res.Committed {
		return m, m.afterCommit()
	}
	m.refresh(true)
	if res.Effect == typewriter.EffectTimerStart {
		return m, typeTickCmd(m.cfg.TypingInterval(), res.Generation)
	}
	return m, nil
}

func (m Model) handleTypeTick(msg typeTickMsg) (tea.Model, tea.Cmd) {
	res := m.orch.Tick(msg.gen)
	if res.Committed {
		return m, m.afterCommit()
	}
	if !m.orch.Typing() || m.orch.Generation() != msg.gen {
		return m, nil
	}
	m.refresh(true)
	return m, typeTickCmd(m.cfg.TypingInterval(), msg.gen)
}

// afterCommit redraws once an answer is stored and applies any deferred
// external reload.
func (m *Model) afterCommit() tea.Cmd {
	var cmd tea.Cmd
	if m.pendingReload && !m.orch.Busy() {
		m.pendingReload = false
		cmd = m.reload()
	}
	m.refresh(true)
	return cmd
}

func (m Model) handleHistoryChanged() (tea.Model, tea.Cmd) {
	var notice tea.Cmd
	if m.orch.Busy() {
		m.pendingReload = true
	} else {
		notice = m.reload()
		m.refresh(true)
	}
	return m, tea.Batch(notice, watchCmd(m.watch))
}

func (m *Model) reload() tea.Cmd {
	if !m.store.Reload() {
		return nil
	}
	log.Debug().Msg("history reloaded from disk")
	return m.setNotice("history updated elsewhere, reloaded")
}

func (m *Model) newChat() {
	m.store.NewSession()
	m.closeSidebarIfNarrow()
	m.setFocus(FocusInput)
	m.sidebar.Cursor = 0
	m.refresh(true)
}

func (m *Model) clearAll() {
	if m.orch.Typing() {
		m.orch.Stop()
	}
	m.store.ClearAll()
	m.closeSidebarIfNarrow()
	m.setFocus(FocusInput)
	m.sidebar.Cursor = 0
	m.refresh(true)
}

func (m *Model) closeSidebarIfNarrow() {
	if m.theme.GetLayoutMode() == styles.LayoutNarrow && m.sidebarOpen {
		m.sidebarOpen = false
		m.layout()
	}
}

func (m Model) copyNumbered(n int) (tea.Model, tea.Cmd) {
	for _, ref := range m.codeRefs {
		if ref.Number != n {
			continue
		}
		token := m.copies.Copy(ref.Key, ref.Text)
		m.refresh(false)
		return m, copyResetCmd(m.cfg.CopyFeedback(), token)
	}
	return m, nil
}

// quit commits a partially typed answer before leaving.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.orch.Typing() {
		m.orch.Stop()
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	return noticeClearCmd(m.noticeSeq)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Focused returns the part of the screen receiving keys.
func (m Model) Focused() Focus { return m.focus }

// SidebarOpen reports whether the history sidebar is shown.
func (m Model) SidebarOpen() bool { return m.sidebarOpen }

// CodeRefs returns the copy targets currently on screen.
func (m Model) CodeRefs() []components.CodeRef { return m.codeRefs }

// Input returns the text typed so far.
func (m Model) Input() string { return m.input.Value() }
