package tui

import (
	"bootprof/internal/graph"
	"bootprof/internal/model"
	"bootprof/internal/report"
	"bootprof/internal/runner"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel holds the TUI state.
type AppModel struct {
	// Profiling inputs
	Dir         string
	ProfileOpts runner.Options
	FilterOpts  report.FilterOptions

	// Data
	Result  *model.ProfileResult
	Tree    *graph.Tree
	Visible []model.ModuleRecord // Result.Modules after filtering
	Loading bool
	Err     error

	// UI State
	SelectedIdx     int
	TreeSelectedIdx int
	WindowSize      tea.WindowSizeMsg

	// View Modes
	ShowProviders bool
	ShowTree      bool
	TreeRows      []TreeRow

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices into Visible to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model
}

// TreeRow is one line of the flattened dependency tree.
type TreeRow struct {
	Node    *graph.Node
	Depth   int
	InCycle bool
}

// InitialModel returns the initial state; the profile run starts from Init.
func InitialModel(dir string, profileOpts runner.Options, filterOpts report.FilterOptions) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Module name..."
	ti.CharLimit = 60
	ti.Width = 24

	return AppModel{
		Dir:         dir,
		ProfileOpts: profileOpts,
		FilterOpts:  filterOpts,
		Loading:     true,
		InputBuffer: ti,
	}
}

// Init kicks off the profiling run in the background.
func (m AppModel) Init() tea.Cmd {
	dir, opts := m.Dir, m.ProfileOpts
	return func() tea.Msg {
		res, err := runner.Profile(dir, opts)
		if err != nil {
			return MsgError(err)
		}
		return MsgProfileReady(res)
	}
}

// flattenTree produces the depth-first rows for tree mode, guarding against
// cycles with a per-walk visited set.
func flattenTree(tree *graph.Tree) []TreeRow {
	var rows []TreeRow
	visited := make(map[*graph.Node]bool)

	var walk func(n *graph.Node, depth int)
	walk = func(n *graph.Node, depth int) {
		if visited[n] {
			return
		}
		visited[n] = true
		rows = append(rows, TreeRow{Node: n, Depth: depth, InCycle: n.InCycle()})
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}

	for _, root := range tree.Roots {
		walk(root, 0)
	}
	// Cycle-only components have no root; show them too.
	for _, n := range tree.SortedByTime {
		if !visited[n] {
			walk(n, 0)
		}
	}
	return rows
}
