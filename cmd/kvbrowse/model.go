// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/filekv/filekv/store"
)

// renderer is bound to the real terminal's detected color profile
// rather than lipgloss's package-level default, the same way the
// ticket viewer's markdown renderer pins its own profile instead of
// trusting ambient global state.
var renderer = lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ColorProfile()))

// focusRegion identifies which pane has keyboard focus.
type focusRegion int

const (
	focusList focusRegion = iota
	focusDetail
)

var (
	paneBorderStyle = renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))
	statusBarStyle = renderer.NewStyle().
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	errorStyle = renderer.NewStyle().Foreground(lipgloss.Color("196"))
)

// entriesLoadedMsg carries the list of known keys and binary
// fingerprints, collected once at startup.
type entriesLoadedMsg struct {
	items []list.Item
	err   error
}

// detailLoadedMsg carries the rendered detail text for a selected entry.
type detailLoadedMsg struct {
	content string
	err     error
}

// Model is the kvbrowse bubbletea model: a list of known keys on the
// left, a detail viewport on the right, and a one-line status bar.
type Model struct {
	store *store.Store
	keys  KeyMap

	list     list.Model
	viewport viewport.Model
	focus    focusRegion

	width  int
	height int
	status string
	err    error
}

// NewModel builds the initial model for s. Call tea.NewProgram(m).Run.
func NewModel(s *store.Store) Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "keys"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Filter = fuzzyFilter

	return Model{
		store:    s,
		keys:     DefaultKeyMap,
		list:     l,
		viewport: viewport.New(0, 0),
		focus:    focusList,
		status:   "loading...",
	}
}

func (m Model) Init() tea.Cmd {
	return loadEntriesCmd(m.store)
}

func loadEntriesCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		keys, err := s.ListKeys()
		if err != nil {
			return entriesLoadedMsg{err: err}
		}
		fps, err := s.ListBinaryFingerprints()
		if err != nil {
			return entriesLoadedMsg{err: err}
		}

		items := make([]list.Item, 0, len(keys)+len(fps))
		for _, k := range keys {
			items = append(items, entry{key: k})
		}
		for _, fp := range fps {
			items = append(items, entry{fingerprint: fp, binary: true})
		}
		return entriesLoadedMsg{items: items}
	}
}

func loadDetailCmd(s *store.Store, e entry) tea.Cmd {
	return func() tea.Msg {
		if e.binary {
			return detailLoadedMsg{content: renderBlobDetail(s, e.fingerprint)}
		}
		return detailLoadedMsg{content: renderStructuredDetail(s, e.key)}
	}
}

func renderStructuredDetail(s *store.Store, key any) string {
	value, found, err := s.GetIn([]any{key})
	if err != nil {
		return fmt.Sprintf("error reading key: %v", err)
	}
	if !found {
		return "(key vanished since the list was loaded)"
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("error encoding value as JSON: %v", err)
	}
	return string(data)
}

// blobPreviewBytes is how much of a binary record's plaintext is shown
// as a hex dump; large blobs are summarized rather than fully rendered.
const blobPreviewBytes = 512

func renderBlobDetail(s *store.Store, fp string) string {
	var out strings.Builder
	found, err := s.BGetByFingerprint(fp, func(r *store.BlobReader) error {
		fmt.Fprintf(&out, "size: %d bytes\n\n", r.Size)
		buf := make([]byte, blobPreviewBytes)
		n, _ := r.Input.Read(buf)
		out.WriteString(hex.Dump(buf[:n]))
		if r.Size > int64(n) {
			fmt.Fprintf(&out, "... (%d more bytes)\n", r.Size-int64(n))
		}
		return nil
	})
	if err != nil {
		return fmt.Sprintf("error reading blob: %v", err)
	}
	if !found {
		return "(blob vanished since the list was loaded)"
	}
	return out.String()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizePanes()
		return m, nil

	case entriesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		cmd := m.list.SetItems(msg.items)
		m.status = fmt.Sprintf("%d entries", len(msg.items))
		return m, cmd

	case detailLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.viewport.SetContent(msg.content)
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case matchKey(msg, m.keys.Quit):
			return m, tea.Quit
		case matchKey(msg, m.keys.Back) && m.focus == focusDetail:
			m.focus = focusList
			return m, nil
		case matchKey(msg, m.keys.Select) && m.focus == focusList:
			if selected, ok := m.list.SelectedItem().(entry); ok {
				m.focus = focusDetail
				m.status = "loading detail..."
				return m, loadDetailCmd(m.store, selected)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == focusList {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// matchKey reports whether msg matches one of binding's keys, a minimal
// stand-in for key.Matches used by Update's key handling.
func matchKey(msg tea.KeyMsg, binding interface{ Keys() []string }) bool {
	pressed := msg.String()
	for _, k := range binding.Keys() {
		if k == pressed {
			return true
		}
	}
	return false
}

func (m *Model) resizePanes() {
	listWidth := m.width / 3
	detailWidth := m.width - listWidth - 4
	paneHeight := m.height - 3

	m.list.SetSize(listWidth, paneHeight)
	m.viewport.Width = detailWidth
	m.viewport.Height = paneHeight
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("kvbrowse: %v\n", m.err))
	}

	listPane := paneBorderStyle.Render(m.list.View())
	detailPane := paneBorderStyle.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	bar := statusBarStyle.Width(m.width).Render(m.status + "  —  enter: view  esc: back  q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, body, bar)
}
