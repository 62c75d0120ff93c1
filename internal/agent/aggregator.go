package agent

import (
	"sync"

	"bootprof/internal/model"
)

// Aggregator owns the raw observation maps on the application side of the
// profiler. The import observer and the lifecycle tracer feed it from their
// own goroutines; the snapshot operation freezes everything for transport.
type Aggregator struct {
	mu        sync.Mutex
	loadTimes map[string]float64
	parents   map[string]string
	phases    map[string]map[string]float64

	// Set by the first Snapshot call. Later calls return the same frozen
	// payload so repeated collects are byte-for-byte identical.
	frozen *model.ResultsPayload
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		loadTimes: make(map[string]float64),
		parents:   make(map[string]string),
		phases:    make(map[string]map[string]float64),
	}
}

// Apply merges a batch of import observations into the maps.
func (a *Aggregator) Apply(batch []Observation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, obs := range batch {
		if obs.Edge {
			a.parents[obs.URL] = obs.Parent
		} else {
			a.loadTimes[obs.URL] = obs.LoadTime
		}
	}
}

// RecordPhase stores the measured duration of one lifecycle phase.
func (a *Aggregator) RecordPhase(plugin, phase string, ms float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.phases[plugin]
	if m == nil {
		m = make(map[string]float64)
		a.phases[plugin] = m
	}
	m[phase] = ms
}

// Snapshot freezes the current maps into a transportable payload.
// The first call copies; every later call returns the same frozen copy,
// so a duplicate collect request cannot observe new data.
func (a *Aggregator) Snapshot() model.ResultsPayload {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen != nil {
		return *a.frozen
	}

	payload := model.ResultsPayload{
		LoadTimes:      make(map[string]float64, len(a.loadTimes)),
		Parents:        make(map[string]string, len(a.parents)),
		ProviderPhases: make(map[string]map[string]float64, len(a.phases)),
	}
	for url, ms := range a.loadTimes {
		payload.LoadTimes[url] = ms
	}
	for url, parent := range a.parents {
		payload.Parents[url] = parent
	}
	for plugin, m := range a.phases {
		cp := make(map[string]float64, len(m))
		for phase, ms := range m {
			cp[phase] = ms
		}
		payload.ProviderPhases[plugin] = cp
	}

	a.frozen = &payload
	return payload
}
