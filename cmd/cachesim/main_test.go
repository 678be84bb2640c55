package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunScenario1ColdMisses exercises spec.md §8 scenario 1: four
// instruction fetches to four distinct blocks, all cold misses, reported
// through the full CLI entry point. All four map to set 0, so the last
// two evict clean lines and nothing is written back.
func TestRunScenario1ColdMisses(t *testing.T) {
	trace := strings.NewReader("2 0x00\n2 0x10\n2 0x20\n2 0x30\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-L1,2,4,16,1,01", "-T,10"}, trace, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "L1 cache")
	assert.Contains(t, out, "DRAM")
}

func TestRunPrintsHelpAndExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-help"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "CACHESIM")
}

func TestRunFailsOnBadGeometry(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-L1,3,4,16,1,01"}, strings.NewReader(""), &stdout, &stderr)

	assert.NotEqual(t, 0, code)
	assert.NotEmpty(t, stderr.String())
}

func TestRunFailsOnUnopenableTraceFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-L1,2,4,16,1,01", "-T,10", "/nonexistent/path/trace.txt"}, strings.NewReader(""), &stdout, &stderr)

	assert.NotEqual(t, 0, code)
	assert.NotEmpty(t, stderr.String())
}
