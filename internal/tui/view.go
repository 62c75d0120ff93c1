package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bootprof/internal/graph"
	"bootprof/internal/model"
	"bootprof/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Profiling boot... this runs your app once, please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press q to quit.\n", m.Err)
	}
	if m.Result == nil {
		return "\n  No data.\n"
	}

	width := m.WindowSize.Width
	height := m.WindowSize.Height
	netWidth := width - 6
	if netWidth < 40 {
		netWidth = 40
	}
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	boxHeight := height - 6
	if boxHeight < 8 {
		boxHeight = 8
	}
	interiorHeight := boxHeight - 2

	header := titleStyle.Render(fmt.Sprintf(
		" bootprof · boot %.0f ms · %d modules · %d plugins ",
		m.Result.TotalTime, m.Result.Summary.TotalModules, len(m.Result.Providers)))

	var left string
	switch {
	case m.ShowProviders:
		left = m.viewProviders(interiorHeight)
	case m.ShowTree:
		left = m.viewTree(leftWidth-4, interiorHeight)
	default:
		left = m.viewModuleList(leftWidth-4, interiorHeight)
	}

	// The details pane scrolls through a viewport when content overflows.
	vp := m.DetailsViewport
	vp.Width = rightWidth - 4
	vp.Height = interiorHeight
	vp.SetContent(m.viewDetails(rightWidth - 4))
	right := vp.View()

	leftPanel := panelStyle.Width(leftWidth).Height(boxHeight).Render(left)
	rightPanel := panelStyle.Width(rightWidth).Height(boxHeight).Render(right)
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)

	footer := dimStyle.Render("  ↑/↓ move · t tree · tab plugins · / search · q quit")
	if m.InputMode {
		footer = "  search: " + m.InputBuffer.View()
	}

	return header + "\n" + body + "\n" + footer
}

// viewModuleList renders the flat slowest-first module list with time bars.
func (m AppModel) viewModuleList(width, height int) string {
	var b strings.Builder
	b.WriteString(normalStyle.Bold(true).Render("Slowest modules"))
	b.WriteString("\n\n")

	if len(m.FilteredIndices) == 0 {
		b.WriteString(dimStyle.Render("  nothing matches"))
		return b.String()
	}

	maxTime := m.Visible[m.FilteredIndices[0]].EffectiveTime()
	for _, i := range m.FilteredIndices {
		if t := m.Visible[i].EffectiveTime(); t > maxTime {
			maxTime = t
		}
	}

	start, end := window(m.SelectedIdx, len(m.FilteredIndices), height-2)
	for pos := start; pos < end; pos++ {
		idx := m.FilteredIndices[pos]
		mod := m.Visible[idx]
		line := fmt.Sprintf("%8.1fms%s %s %s %s",
			mod.EffectiveTime(),
			slowMark(mod.EffectiveTime()),
			barStyle.Render(miniBar(mod.EffectiveTime(), maxTime, 10)),
			categoryIcon(mod.URL, m.FilterOpts.FrameworkMarkers),
			truncate(graph.DisplayName(mod.URL), width-26))

		if pos == m.SelectedIdx {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// viewTree renders the dependency tree with depth indentation.
func (m AppModel) viewTree(width, height int) string {
	var b strings.Builder
	b.WriteString(normalStyle.Bold(true).Render("Import tree (cascading time)"))
	b.WriteString("\n\n")

	if len(m.TreeRows) == 0 {
		b.WriteString(dimStyle.Render("  empty graph"))
		return b.String()
	}

	start, end := window(m.TreeSelectedIdx, len(m.TreeRows), height-2)
	for pos := start; pos < end; pos++ {
		row := m.TreeRows[pos]
		indent := strings.Repeat("  ", row.Depth)
		marker := ""
		if row.InCycle {
			marker = " " + cycleStyle.Render(model.IconCycle)
		}
		line := fmt.Sprintf("%s%s%s  %s", indent,
			truncate(row.Node.Name, width-16-len(indent)), marker,
			dimStyle.Render(fmt.Sprintf("%.1fms", row.Node.Record.EffectiveTime())))

		if pos == m.TreeSelectedIdx {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// viewProviders renders the plugin phase table.
func (m AppModel) viewProviders(height int) string {
	var b strings.Builder
	b.WriteString(normalStyle.Bold(true).Render("Plugin lifecycle phases"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-24s %8s %8s %8s %8s", "plugin", "register", "boot", "start", "ready")))
	b.WriteString("\n")

	count := 0
	for _, p := range m.Result.Providers {
		if count >= height-3 {
			break
		}
		b.WriteString(fmt.Sprintf("  %-24s %7.1f %7.1f %7.1f %7.1f\n",
			truncate(p.Name, 24),
			p.Phases["register"], p.Phases["boot"], p.Phases["start"], p.Phases["ready"]))
		count++
	}
	return b.String()
}

// viewDetails renders the right-hand pane for the current selection.
func (m AppModel) viewDetails(width int) string {
	var b strings.Builder
	b.WriteString(normalStyle.Bold(true).Render("Details"))
	b.WriteString("\n\n")

	var node *graph.Node
	if m.ShowTree && m.TreeSelectedIdx < len(m.TreeRows) {
		node = m.TreeRows[m.TreeSelectedIdx].Node
	} else if !m.ShowProviders && m.SelectedIdx < len(m.FilteredIndices) {
		url := m.Visible[m.FilteredIndices[m.SelectedIdx]].URL
		node = m.Tree.Nodes[url]
	}

	if node == nil {
		b.WriteString(dimStyle.Render("select a module"))
		return b.String()
	}

	rec := node.Record
	b.WriteString(wrap(rec.URL, width) + "\n\n")
	fmt.Fprintf(&b, "self time:      %8.1f ms\n", rec.LoadTime)
	fmt.Fprintf(&b, "cascading time: %8.1f ms\n", rec.EffectiveTime())
	category := report.Categorize(rec.URL, m.FilterOpts.FrameworkMarkers)
	fmt.Fprintf(&b, "category:       %s\n", category)
	if category == report.CategoryApp {
		fmt.Fprintf(&b, "role:           %s\n", report.Role(rec.URL, m.ProfileOpts.Roles))
	} else {
		fmt.Fprintf(&b, "package:        %s\n", report.PackageName(rec.URL))
	}
	fmt.Fprintf(&b, "direct imports: %d\n", len(node.Children))

	if chain := node.Chain(); len(chain) > 1 {
		b.WriteString("\nimport chain:\n")
		for i, name := range chain {
			b.WriteString(dimStyle.Render(strings.Repeat("  ", i)+"└ ") + truncate(name, width-2*i-2) + "\n")
		}
	}

	if len(node.Children) > 0 {
		b.WriteString("\nheaviest imports:\n")
		for i, child := range node.Children {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  %7.1fms %s\n", child.Record.EffectiveTime(), truncate(child.Name, width-12))
		}
	}
	return b.String()
}

// window computes the visible slice around the selection for the left
// panel's scrolling behavior.
func window(selected, total, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	if total <= visible {
		return 0, total
	}
	start := 0
	if selected >= visible/2 {
		start = selected - visible/2
	}
	if start+visible > total {
		start = total - visible
	}
	return start, start + visible
}

// slowThresholdMs is the effective time above which a module gets the
// attention marker in the list.
const slowThresholdMs = 100.0

func slowMark(ms float64) string {
	if ms >= slowThresholdMs {
		return cycleStyle.Render(model.IconSlow)
	}
	return " "
}

func categoryIcon(url string, frameworkMarkers []string) string {
	switch report.Categorize(url, frameworkMarkers) {
	case report.CategoryApp:
		return model.IconApp
	case report.CategoryFramework:
		return model.IconFramework
	case report.CategoryDependency:
		return model.IconDep
	default:
		return model.IconBuiltin
	}
}

func miniBar(value, max float64, width int) string {
	if max <= 0 {
		return strings.Repeat(" ", width)
	}
	filled := int(value / max * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 1 && value > 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat(" ", width-filled)
}

// truncate keeps the rightmost max runes of s. Slicing on runes keeps
// multi-byte path characters intact.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return "…" + string(runes[len(runes)-max+1:])
}

func wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	runes := []rune(s)
	var b strings.Builder
	for len(runes) > width {
		b.WriteString(string(runes[:width]) + "\n")
		runes = runes[width:]
	}
	b.WriteString(string(runes))
	return b.String()
}
