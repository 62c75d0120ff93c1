package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	f, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, f.Entry)
	assert.Nil(t, f.IncludeDeps)
}

func TestLoadParsesAllFields(t *testing.T) {
	dir := t.TempDir()
	data := `
entry: build/bin/server.js
readyMarker: "listening on"
timeoutSeconds: 45
top: 25
minTimeMs: 2.5
includeDeps: true
frameworkMarkers:
  - /node_modules/@nestjs/
roles:
  - role: handler
    patterns: ["_handler."]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(data), 0o644))

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "build/bin/server.js", f.Entry)
	assert.Equal(t, "listening on", f.ReadyMarker)
	assert.Equal(t, 45, f.TimeoutSeconds)
	assert.Equal(t, 25, f.Top)
	assert.Equal(t, 2.5, f.MinTimeMs)
	require.NotNil(t, f.IncludeDeps)
	assert.True(t, *f.IncludeDeps)
	assert.Equal(t, []string{"/node_modules/@nestjs/"}, f.FrameworkMarkers)
	require.Len(t, f.Roles, 1)
	assert.Equal(t, "handler", f.Roles[0].Role)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("entry: [unclosed"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}
