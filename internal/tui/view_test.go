package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"bootprof/internal/model"
)

func TestTruncateKeepsMultibyteRunesIntact(t *testing.T) {
	path := "file:///app/módulos/café/контроллер.ts"

	got := truncate(path, 12)
	assert.True(t, utf8.ValidString(got), "no split UTF-8 sequences")
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 12)
	assert.True(t, strings.HasPrefix(got, "…"))

	// Short strings pass through untouched.
	assert.Equal(t, "café.ts", truncate("café.ts", 12))
}

func TestWrapBreaksOnRuneBoundaries(t *testing.T) {
	wrapped := wrap(strings.Repeat("ü", 25), 10)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.True(t, utf8.ValidString(line))
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 10)
	}
}

func TestSlowMarkFlagsModulesAboveThreshold(t *testing.T) {
	assert.Contains(t, slowMark(slowThresholdMs), model.IconSlow)
	assert.Contains(t, slowMark(250.0), model.IconSlow)
	assert.Equal(t, " ", slowMark(99.9))
}
