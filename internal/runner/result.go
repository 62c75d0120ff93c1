package runner

import (
	"sort"
	"time"

	"bootprof/internal/graph"
	"bootprof/internal/model"
	"bootprof/internal/report"
)

// assemble turns the raw collected maps into the immutable ProfileResult.
// Subtree times are computed here, once, before anything downstream gets to
// filter the module list.
func assemble(payload model.ResultsPayload, wall time.Duration, bootTime *[2]int64, opts Options) *model.ProfileResult {
	records := make([]*model.ModuleRecord, 0, len(payload.LoadTimes))
	for url, ms := range payload.LoadTimes {
		records = append(records, &model.ModuleRecord{
			URL:       url,
			LoadTime:  ms,
			ParentURL: payload.Parents[url],
		})
	}
	graph.ComputeSubtrees(records)

	modules := make([]model.ModuleRecord, len(records))
	for i, rec := range records {
		modules[i] = *rec
	}
	sort.SliceStable(modules, func(i, j int) bool {
		a, b := modules[i].EffectiveTime(), modules[j].EffectiveTime()
		if a != b {
			return a > b
		}
		return modules[i].URL < modules[j].URL
	})

	providers := assembleProviders(payload.ProviderPhases)

	total := float64(wall) / float64(time.Millisecond)
	if bootTime != nil {
		total = float64(bootTime[0])*1000 + float64(bootTime[1])/1e6
	}

	return &model.ProfileResult{
		TotalTime: total,
		Modules:   modules,
		Providers: providers,
		Summary:   report.Summarize(modules, providers, opts.Roles, opts.FrameworkMarkers),
	}
}

// assembleProviders fills every known phase (0 when unobserved) and sums the
// boot-window phases into totals. Slowest plugin first.
func assembleProviders(phases map[string]map[string]float64) []model.PluginTiming {
	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Strings(names)

	providers := make([]model.PluginTiming, 0, len(names))
	for _, name := range names {
		timing := model.PluginTiming{Name: name, Phases: make(map[string]float64, len(model.Phases))}
		for _, phase := range model.Phases {
			timing.Phases[phase] = phases[name][phase]
			if phase != "shutdown" {
				timing.TotalTime += phases[name][phase]
			}
		}
		providers = append(providers, timing)
	}
	sort.SliceStable(providers, func(i, j int) bool {
		if providers[i].TotalTime != providers[j].TotalTime {
			return providers[i].TotalTime > providers[j].TotalTime
		}
		return providers[i].Name < providers[j].Name
	})
	return providers
}
