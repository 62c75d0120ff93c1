package report

import (
	"sort"

	"bootprof/internal/model"
)

// FilterOptions narrows the module list for display.
type FilterOptions struct {
	MinTime          float64 // Keep modules with effective time >= this, in ms
	IncludeDeps      bool    // Keep third-party and framework categories
	FrameworkMarkers []string
}

// Filter applies the display filters. Runtime built-ins are excluded
// unconditionally. The effective time compared against MinTime is the
// subtree time computed before filtering; it is never recomputed over the
// pruned list, so cascading totals stay truthful.
func Filter(modules []model.ModuleRecord, opts FilterOptions) []model.ModuleRecord {
	kept := make([]model.ModuleRecord, 0, len(modules))
	for _, mod := range modules {
		switch Categorize(mod.URL, opts.FrameworkMarkers) {
		case CategoryBuiltin:
			continue
		case CategoryDependency, CategoryFramework:
			if !opts.IncludeDeps {
				continue
			}
		}
		if mod.EffectiveTime() < opts.MinTime {
			continue
		}
		kept = append(kept, mod)
	}
	return kept
}

// PackageGroup is one package's worth of modules for the grouped view.
type PackageGroup struct {
	Name      string
	Count     int
	TotalTime float64 // Summed self time of the group's modules
	Modules   []model.ModuleRecord
}

// GroupByPackage buckets modules by package name (first-party files under
// "app"), slowest group first.
func GroupByPackage(modules []model.ModuleRecord) []PackageGroup {
	index := make(map[string]int)
	var groups []PackageGroup
	for _, mod := range modules {
		name := PackageName(mod.URL)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, PackageGroup{Name: name})
		}
		groups[i].Count++
		groups[i].TotalTime += mod.LoadTime
		groups[i].Modules = append(groups[i].Modules, mod)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].TotalTime != groups[j].TotalTime {
			return groups[i].TotalTime > groups[j].TotalTime
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}
