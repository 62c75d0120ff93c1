package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOnEmptyAggregatorIsEmptyNotNil(t *testing.T) {
	agg := NewAggregator()
	payload := agg.Snapshot()

	assert.Empty(t, payload.LoadTimes)
	assert.Empty(t, payload.Parents)
	assert.Empty(t, payload.ProviderPhases)
	assert.NotNil(t, payload.LoadTimes)
}

func TestSnapshotIsFrozenAndIdempotent(t *testing.T) {
	agg := NewAggregator()
	agg.Apply([]Observation{
		{URL: "file:///app/a.ts", LoadTime: 12},
		{Edge: true, URL: "file:///app/b.ts", Parent: "file:///app/a.ts"},
	})
	agg.RecordPhase("db_provider", "boot", 3.5)

	first := agg.Snapshot()

	// Mutations after the freeze must not leak into later snapshots.
	agg.Apply([]Observation{{URL: "file:///app/late.ts", LoadTime: 99}})
	agg.RecordPhase("db_provider", "start", 1)

	second := agg.Snapshot()

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.NotContains(t, second.LoadTimes, "file:///app/late.ts")
}

func TestApplyMergesEdgesAndLoads(t *testing.T) {
	agg := NewAggregator()
	agg.Apply([]Observation{
		{Edge: true, URL: "file:///app/b.ts", Parent: "file:///app/a.ts"},
		{URL: "file:///app/b.ts", LoadTime: 7},
		{URL: "file:///app/b.ts", LoadTime: 9}, // later load observation wins
	})

	payload := agg.Snapshot()
	assert.Equal(t, 9.0, payload.LoadTimes["file:///app/b.ts"])
	assert.Equal(t, "file:///app/a.ts", payload.Parents["file:///app/b.ts"])
}
