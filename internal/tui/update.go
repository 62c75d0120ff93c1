package tui

import (
	"strings"

	"bootprof/internal/graph"
	"bootprof/internal/model"
	"bootprof/internal/report"

	tea "github.com/charmbracelet/bubbletea"
)

// MsgProfileReady indicates that the profiling run has completed.
type MsgProfileReady *model.ProfileResult

// MsgError indicates an error occurred.
type MsgError error

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.DetailsViewport.Width = msg.Width / 2
		m.DetailsViewport.Height = msg.Height - 4 // minus footer/header
		return m, nil

	case MsgProfileReady:
		m.Loading = false
		m.Result = (*model.ProfileResult)(msg)

		m.Visible = report.Filter(m.Result.Modules, m.FilterOpts)
		records := make([]*model.ModuleRecord, len(m.Result.Modules))
		for i := range m.Result.Modules {
			rec := m.Result.Modules[i]
			records[i] = &rec
		}
		m.Tree = graph.BuildTree(records)
		m.TreeRows = flattenTree(m.Tree)

		m.FilteredIndices = allIndices(len(m.Visible))
		m.SelectedIdx = 0
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.performSearch()
				return m, nil
			case tea.KeyEsc:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.SearchActive = false
				m.InputBuffer.SetValue("")
				m.performSearch()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.InputMode = false
				m.InputBuffer.Blur()
				m.SearchActive = false
				m.InputBuffer.SetValue("")
				m.performSearch()
				return m, nil
			}
			if m.ShowTree {
				m.ShowTree = false
				return m, nil
			}
			if m.ShowProviders {
				m.ShowProviders = false
				return m, nil
			}
		case "up", "k":
			if m.ShowTree {
				if m.TreeSelectedIdx > 0 {
					m.TreeSelectedIdx--
				}
			} else if m.SelectedIdx > 0 {
				m.SelectedIdx--
			}
		case "down", "j":
			if m.ShowTree {
				if m.TreeSelectedIdx < len(m.TreeRows)-1 {
					m.TreeSelectedIdx++
				}
			} else if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
			}
		case "tab", "p":
			m.ShowProviders = !m.ShowProviders
			m.ShowTree = false
		case "t":
			m.ShowTree = !m.ShowTree
			m.ShowProviders = false
		case "/":
			m.InputMode = true
			m.SearchActive = true
			m.InputBuffer.Focus()
			return m, nil
		}
	}

	return m, nil
}

// performSearch recomputes FilteredIndices from the input buffer.
func (m *AppModel) performSearch() {
	query := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	if query == "" || !m.SearchActive {
		m.FilteredIndices = allIndices(len(m.Visible))
		m.SelectedIdx = clampIdx(m.SelectedIdx, len(m.FilteredIndices))
		return
	}

	var filtered []int
	for i, mod := range m.Visible {
		if strings.Contains(strings.ToLower(mod.URL), query) {
			filtered = append(filtered, i)
		}
	}
	m.FilteredIndices = filtered
	m.SelectedIdx = 0
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func clampIdx(idx, length int) int {
	if length == 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
