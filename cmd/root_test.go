package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	expected := []string{
		"install", "remove", "update", "list", "gc",
		"registry:add", "registry:list", "registry:fetch",
		"workspace:create", "workspace:list", "workspace:remove",
		"config:init",
	}

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range expected {
		require.True(t, names[name], "missing subcommand %s", name)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, flag := range []string{"config", "workspace", "json", "debug"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3 (commit: abc, built: today)")
	require.Equal(t, "1.2.3 (commit: abc, built: today)", rootCmd.Version)
}
