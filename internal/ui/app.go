// Package ui provides an interactive terminal browser for a completed
// snapshot: a collapsible tree view with annotation badges.
package ui

import (
	"fmt"
	"strings"

	"github.com/dirsnap/dirsnap/internal/scanner"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the main application model. It operates on an already
// scanned tree; no filesystem access happens during the session.
type Model struct {
	root     *scanner.Entry
	expanded map[*scanner.Entry]bool
	rows     []row
	cursor   int

	// Components
	viewport viewport.Model
	help     help.Model
	keys     KeyMap

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates a Model rooted at the given entry, with the root
// expanded.
func New(root *scanner.Entry) Model {
	m := Model{
		root:     root,
		expanded: map[*scanner.Entry]bool{root: true},
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
	m.refresh()
	return m
}

// refresh rebuilds the visible rows after an expand/collapse change.
func (m *Model) refresh() {
	m.rows = flatten(m.root, 0, m.expanded, nil)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := m.height - 4 // title + help
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = contentHeight
		}
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes a single key press.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0

	case key.Matches(msg, m.keys.End):
		m.cursor = len(m.rows) - 1

	case key.Matches(msg, m.keys.Toggle):
		m.toggle()

	case key.Matches(msg, m.keys.Expand):
		m.setExpanded(true)

	case key.Matches(msg, m.keys.Collapse):
		m.collapse()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.syncViewport()
	return m, nil
}

// moveCursor moves the selection, clamped to the row range.
func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

// toggle flips the expanded state of the selected directory.
func (m *Model) toggle() {
	if m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	if !r.expandable() {
		return
	}
	m.expanded[r.entry] = !m.expanded[r.entry]
	m.refresh()
}

// setExpanded opens the selected directory.
func (m *Model) setExpanded(open bool) {
	if m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	if !r.expandable() {
		return
	}
	m.expanded[r.entry] = open
	m.refresh()
}

// collapse closes the selected directory, or jumps to the parent when
// the selection is not an open directory.
func (m *Model) collapse() {
	if m.cursor >= len(m.rows) {
		return
	}
	r := m.rows[m.cursor]
	if r.expandable() && m.expanded[r.entry] {
		m.expanded[r.entry] = false
		m.refresh()
		return
	}
	// Walk up to the nearest shallower row.
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < r.depth {
			m.cursor = i
			return
		}
	}
}

// syncViewport re-renders the rows and keeps the cursor in view.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}

	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		lines[i] = r.render(i == m.cursor, m.expanded[r.entry])
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	}
	if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	title := TitleStyle.Render(fmt.Sprintf("dirsnap — %s (%d entries visible)", m.root.Path, len(m.rows)))
	return title + "\n" + m.viewport.View() + "\n" + HelpStyle.Render(m.help.View(m.keys))
}
