package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleRide = `
name: ci
maxConcurrency: 2
segments:
  - name: fetch
    command: "echo fetching"
  - name: build
    dependsOn: [fetch]
    command: "echo building"
    produces:
      binary: out/app
    timeout: 5s
  - name: deploy
    dependsOn: [build]
    command: "echo deploying"
    consumes: [binary]
flow:
  - fetch
  - build
  - deploy
`

func writeRideFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "ci.kite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesSegmentsAndFlow(t *testing.T) {
	path := writeRideFile(t, sampleRide)

	doc, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "ci", doc.Ride.Name())
	require.Equal(t, 2, doc.Ride.MaxConcurrency())
	require.Len(t, doc.Segments, 3)

	build := doc.Segments["build"]
	require.Equal(t, []string{"fetch"}, build.DependsOn())
	require.Equal(t, "out/app", build.Outputs()["binary"])

	flow := doc.Ride.Flow()
	require.Len(t, flow, 3)
	require.False(t, flow[0].IsParallel())
}

func TestLoadParsesParallelFlowStep(t *testing.T) {
	path := writeRideFile(t, `
name: fanout
maxConcurrency: 4
segments:
  - name: a
    command: "echo a"
  - name: b
    command: "echo b"
flow:
  - [a, b]
`)

	doc, err := Load(path)
	require.NoError(t, err)

	flow := doc.Ride.Flow()
	require.Len(t, flow, 1)
	require.True(t, flow[0].IsParallel())
	require.ElementsMatch(t, []string{"a", "b"}, flow[0].Segments())
}

func TestLoadRejectsMissingCommand(t *testing.T) {
	path := writeRideFile(t, `
name: broken
maxConcurrency: 1
segments:
  - name: fetch
flow:
  - fetch
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.kite.yaml"))
	require.Error(t, err)
}
