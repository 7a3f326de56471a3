package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_NoBootstrapErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run([]string{"--topology"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no bootstrap nodes")
}

func TestRun_NoModeErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	// Port 1 on loopback: nothing listens there, so dialing fails fast and
	// construction still succeeds (the library tolerates a failed initial
	// rebuild), letting this test reach the "no mode selected" error.
	code := run([]string{"127.0.0.1:1"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "one of --topology, --interactive, or -c")
}

func TestRun_UnknownFlagErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--not-a-real-flag"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestFirstNonZero(t *testing.T) {
	assert.Equal(t, 5, firstNonZero(0, 5, 9))
	assert.Equal(t, 0, firstNonZero(0, 0))
	assert.Equal(t, 3, firstNonZero(3, 7))
}
