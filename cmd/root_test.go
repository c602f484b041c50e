package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	want := []string{"fetch", "normalize", "report", "export", "analyze", "cik", "migrate", "serve"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range want {
		assert.True(t, names[name], "missing subcommand %s", name)
	}
}

func TestNewFactSource_Unknown(t *testing.T) {
	_, err := newFactSource("bloomberg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}
