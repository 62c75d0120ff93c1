package report

import (
	"sort"

	"bootprof/internal/model"
)

// Summarize computes the aggregate statistics over the full (unfiltered)
// module list and the plugin timings. roles and frameworkMarkers extend the
// built-in classification tables; nil means defaults only. They must match
// the tables used for filtering or the summary counts drift from the views.
func Summarize(modules []model.ModuleRecord, providers []model.PluginTiming, roles []RolePattern, frameworkMarkers []string) model.Summary {
	summary := model.Summary{
		TotalModules:   len(modules),
		CategoryCounts: make(map[string]int),
		PackageTotals:  make(map[string]float64),
	}

	roleGroups := make(map[string]*model.RoleGroup)
	for _, mod := range modules {
		category := Categorize(mod.URL, frameworkMarkers)
		summary.CategoryCounts[string(category)]++
		summary.TotalLoadTime += mod.LoadTime
		summary.PackageTotals[PackageName(mod.URL)] += mod.LoadTime

		if category != CategoryApp {
			continue
		}
		role := Role(mod.URL, roles)
		group := roleGroups[role]
		if group == nil {
			group = &model.RoleGroup{Role: role}
			roleGroups[role] = group
		}
		group.Count++
		group.TotalTime += mod.LoadTime
		group.URLs = append(group.URLs, mod.URL)
	}

	for _, group := range roleGroups {
		summary.RoleGroups = append(summary.RoleGroups, *group)
	}
	sort.SliceStable(summary.RoleGroups, func(i, j int) bool {
		a, b := summary.RoleGroups[i], summary.RoleGroups[j]
		if a.TotalTime != b.TotalTime {
			return a.TotalTime > b.TotalTime
		}
		return a.Role < b.Role
	})

	for _, p := range providers {
		summary.TotalPhaseTime += p.TotalTime
	}
	return summary
}
