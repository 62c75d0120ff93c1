package report

import (
	"fmt"
	"strings"

	"bootprof/internal/graph"
	"bootprof/internal/model"
)

// Options shapes the text report.
type Options struct {
	Top           int  // Number of slowest modules to list (default 15)
	GroupPackages bool // Add the per-package section
	Verbose       bool // Dump every filtered module with its parent chain
	Filter        FilterOptions
}

const barWidth = 30

// Generate renders the diagnostic report used by --report mode.
func Generate(res *model.ProfileResult, opts Options) string {
	if opts.Top <= 0 {
		opts.Top = 15
	}

	var b strings.Builder
	b.WriteString("bootprof report\n")
	b.WriteString("===============\n\n")

	s := res.Summary
	fmt.Fprintf(&b, "Boot time: %s across %d modules (app %d, deps %d, framework %d, builtin %d)\n",
		fmtMs(res.TotalTime), s.TotalModules,
		s.CategoryCounts[string(CategoryApp)],
		s.CategoryCounts[string(CategoryDependency)],
		s.CategoryCounts[string(CategoryFramework)],
		s.CategoryCounts[string(CategoryBuiltin)])
	fmt.Fprintf(&b, "Module self time: %s, plugin phases: %s\n\n",
		fmtMs(s.TotalLoadTime), fmtMs(s.TotalPhaseTime))

	modules := Filter(res.Modules, opts.Filter)
	writeSlowest(&b, modules, opts.Top)
	writeProviders(&b, res.Providers)
	writeRoles(&b, s.RoleGroups)
	if opts.GroupPackages {
		writePackages(&b, modules, opts.Top)
	}
	if opts.Verbose {
		writeAllModules(&b, modules)
	}
	return b.String()
}

func writeSlowest(b *strings.Builder, modules []model.ModuleRecord, top int) {
	b.WriteString("Slowest modules (cascading time)\n")
	if len(modules) == 0 {
		b.WriteString("  (nothing above threshold)\n\n")
		return
	}
	max := modules[0].EffectiveTime()
	for i, mod := range modules {
		if i >= top {
			break
		}
		fmt.Fprintf(b, "  %9s %s %s\n",
			fmtMs(mod.EffectiveTime()), bar(mod.EffectiveTime(), max), graph.DisplayName(mod.URL))
	}
	b.WriteString("\n")
}

func writeProviders(b *strings.Builder, providers []model.PluginTiming) {
	if len(providers) == 0 {
		return
	}
	b.WriteString("Plugin lifecycle phases\n")
	fmt.Fprintf(b, "  %-40s %9s %9s %9s %9s %9s\n",
		"plugin", "register", "boot", "start", "ready", "total")
	for _, p := range providers {
		fmt.Fprintf(b, "  %-40s %9s %9s %9s %9s %9s\n",
			p.Name,
			fmtMs(p.Phases["register"]),
			fmtMs(p.Phases["boot"]),
			fmtMs(p.Phases["start"]),
			fmtMs(p.Phases["ready"]),
			fmtMs(p.TotalTime))
	}
	b.WriteString("\n")
}

func writeRoles(b *strings.Builder, groups []model.RoleGroup) {
	if len(groups) == 0 {
		return
	}
	b.WriteString("First-party files by role\n")
	for _, g := range groups {
		fmt.Fprintf(b, "  %-12s %3d files %9s\n", g.Role, g.Count, fmtMs(g.TotalTime))
	}
	b.WriteString("\n")
}

func writePackages(b *strings.Builder, modules []model.ModuleRecord, top int) {
	groups := GroupByPackage(modules)
	b.WriteString("Packages by self time\n")
	for i, g := range groups {
		if i >= top {
			break
		}
		fmt.Fprintf(b, "  %-32s %3d modules %9s\n", g.Name, g.Count, fmtMs(g.TotalTime))
	}
	b.WriteString("\n")
}

func writeAllModules(b *strings.Builder, modules []model.ModuleRecord) {
	b.WriteString("All modules above threshold\n")
	for _, mod := range modules {
		fmt.Fprintf(b, "  %9s self %9s  %s", fmtMs(mod.EffectiveTime()), fmtMs(mod.LoadTime), mod.URL)
		if mod.ParentURL != "" {
			fmt.Fprintf(b, "  <- %s", graph.DisplayName(mod.ParentURL))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func bar(value, max float64) string {
	if max <= 0 {
		return strings.Repeat(" ", barWidth)
	}
	filled := int(value / max * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 1 && value > 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func fmtMs(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.1f ms", ms)
}
