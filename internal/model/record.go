package model

// Version is the released version of bootprof.
const Version = "0.3.0"

// Phases is the fixed, ordered set of plugin lifecycle phases observed
// during boot. Shutdown is observed but excluded from plugin totals since
// it happens after the measurement window of interest.
var Phases = []string{"register", "boot", "start", "ready", "shutdown"}

// ModuleRecord describes one uniquely-resolved module observed during boot.
type ModuleRecord struct {
	URL       string  `json:"url"`                 // Canonical resolved identifier (unique key)
	LoadTime  float64 `json:"loadTime"`            // Self time in ms (excludes nested loads)
	ParentURL string  `json:"parentUrl,omitempty"` // URL whose import caused this resolution ("" for roots)

	// SubtreeTime is LoadTime plus the summed LoadTime of every transitive
	// descendant. Computed once per result set by graph.BuildTree and never
	// recomputed after filtering; a zero value with HasSubtree=false means
	// the graph pass has not run.
	SubtreeTime float64 `json:"subtreeTime"`
	HasSubtree  bool    `json:"-"`
}

// EffectiveTime is the subtree time when computed, else the self time.
// Sorting and threshold filtering both use this.
func (r *ModuleRecord) EffectiveTime() float64 {
	if r.HasSubtree {
		return r.SubtreeTime
	}
	return r.LoadTime
}

// PhaseTiming is the measured duration of one lifecycle phase of one plugin.
type PhaseTiming struct {
	Plugin     string  `json:"plugin"`
	Phase      string  `json:"phase"`
	DurationMs float64 `json:"durationMs"`
}

// PluginTiming aggregates the phase timings of a single plugin. Phases maps
// every known phase name to a duration, defaulting to 0 when unobserved.
type PluginTiming struct {
	Name      string             `json:"name"`
	Phases    map[string]float64 `json:"phases"`
	TotalTime float64            `json:"totalTime"` // register+boot+start+ready (no shutdown)
}

// Summary holds the aggregate statistics shown at the top of reports.
type Summary struct {
	TotalModules   int                `json:"totalModules"`
	CategoryCounts map[string]int     `json:"categoryCounts"`
	TotalLoadTime  float64            `json:"totalLoadTime"`  // Sum of self times, ms
	TotalPhaseTime float64            `json:"totalPhaseTime"` // Sum across all plugin phases, ms
	RoleGroups     []RoleGroup        `json:"roleGroups"`     // First-party files grouped by structural role
	PackageTotals  map[string]float64 `json:"packageTotals,omitempty"`
}

// RoleGroup is a set of first-party modules sharing a structural role
// (controller, service, model, ...).
type RoleGroup struct {
	Role      string   `json:"role"`
	Count     int      `json:"count"`
	TotalTime float64  `json:"totalTime"`
	URLs      []string `json:"urls"`
}

// ProfileResult is the root aggregate of one profiling run. It is created
// once, after the child has reported, and never mutated afterwards.
type ProfileResult struct {
	TotalTime float64        `json:"totalTime"` // Boot wall clock, ms
	Modules   []ModuleRecord `json:"modules"`
	Providers []PluginTiming `json:"providers"`
	Summary   Summary        `json:"summary"`
}
