package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGraphCommandPrintsLevels(t *testing.T) {
	ridePath := writeRideFile(t, sampleRide)

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"graph", ridePath})

	require.NoError(t, root.Execute())
	output := buf.String()
	require.Contains(t, output, "ci")
	require.Contains(t, output, "level 0")
	require.Contains(t, output, "fetch")
	require.Contains(t, output, "build")
}

func TestGraphCommandRejectsCycle(t *testing.T) {
	ridePath := writeRideFile(t, `
name: broken
maxConcurrency: 1
segments:
  - name: a
    dependsOn: [b]
    command: "true"
  - name: b
    dependsOn: [a]
    command: "true"
flow:
  - [a, b]
`)

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"graph", ridePath})

	require.Error(t, root.Execute())
}
