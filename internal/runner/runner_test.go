package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEntry drops an executable fixture into dir/bin/server. The control
// channel arrives on fds 3 (commands in) and 4 (replies out), so a plain
// shell script can play the child side of the protocol.
func writeEntry(t *testing.T, dir, script string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	path := filepath.Join(dir, "bin", "server")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
}

const resultsLine = `{"type":"results","data":{"loadTimes":{"file:///app/a.ts":5,"file:///app/b.ts":2},"parents":{"file:///app/b.ts":"file:///app/a.ts"},"providerPhases":{"db_provider":{"boot":3}}}}`

func TestProfileHappyPath(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo "booting"
echo "started HTTP server"
read cmd <&3
echo '`+resultsLine+`' >&4
sleep 5
`)

	res, err := Profile(dir, Options{Quiet: true, Timeout: 10 * time.Second})
	require.NoError(t, err)

	require.Len(t, res.Modules, 2)
	assert.Equal(t, "file:///app/a.ts", res.Modules[0].URL)
	assert.Equal(t, 7.0, res.Modules[0].SubtreeTime, "a cascades over b")
	require.Len(t, res.Providers, 1)
	assert.Equal(t, "db_provider", res.Providers[0].Name)
	assert.Equal(t, 3.0, res.Providers[0].TotalTime)
	assert.Equal(t, 0.0, res.Providers[0].Phases["register"], "unobserved phases default to 0")
	assert.Greater(t, res.TotalTime, 0.0)
}

func TestProfileUsesReportedBootTime(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo '{"type":"ready","bootTime":[1,500000000]}' >&4
read cmd <&3
echo '`+resultsLine+`' >&4
sleep 5
`)

	res, err := Profile(dir, Options{Quiet: true, Timeout: 10 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 1500.0, res.TotalTime)
}

func TestProfileIgnoresDuplicateAndMalformedMessages(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo "started HTTP server"
read cmd <&3
echo 'this is not json' >&4
echo '{"type":"mystery","data":[1,2,3]}' >&4
echo '`+resultsLine+`' >&4
echo '{"type":"results","data":{"loadTimes":{"file:///late.ts":99},"parents":{},"providerPhases":{}}}' >&4
sleep 5
`)

	res, err := Profile(dir, Options{Quiet: true, Timeout: 10 * time.Second})
	require.NoError(t, err)
	require.Len(t, res.Modules, 2, "second results message must be dropped")
	assert.Equal(t, "file:///app/a.ts", res.Modules[0].URL)
}

func TestProfileEntryPointMissing(t *testing.T) {
	dir := t.TempDir() // no bin/server

	started := time.Now()
	_, err := Profile(dir, Options{Quiet: true})

	var notFound *EntryPointNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Path, "bin/server")
	assert.Less(t, time.Since(started), time.Second, "must fail before spawning anything")
}

func TestProfileTimesOutWhenNeverReady(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo "booting but never ready"
sleep 60
`)

	started := time.Now()
	_, err := Profile(dir, Options{Quiet: true, Timeout: 300 * time.Millisecond})
	elapsed := time.Since(started)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 10*time.Second, "child must be killed, not waited out")
}

func TestProfileChildCrash(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo "about to die"
exit 7
`)

	_, err := Profile(dir, Options{Quiet: true, Timeout: 5 * time.Second})

	var crashed *ChildProcessError
	require.ErrorAs(t, err, &crashed)
	assert.Equal(t, 7, crashed.Code)
}

func TestProfileCleanExitWithoutResultsTimesOut(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `exit 0`)

	_, err := Profile(dir, Options{Quiet: true, Timeout: 300 * time.Millisecond})

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
}

func TestProfileCustomReadyMarker(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, `
echo "app listening on :4000"
read cmd <&3
echo '`+resultsLine+`' >&4
sleep 5
`)

	res, err := Profile(dir, Options{
		Quiet:       true,
		ReadyMarker: "listening on",
		Timeout:     10 * time.Second,
	})
	require.NoError(t, err)
	assert.Len(t, res.Modules, 2)
}
