package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := rootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"serve", "worker", "remind"}, names)
	assert.True(t, root.SilenceUsage)
}

func TestRemindCommand_Defaults(t *testing.T) {
	cmd := remindCommand()

	lead, err := cmd.Flags().GetDuration("lead")
	require.NoError(t, err)
	window, err := cmd.Flags().GetDuration("window")
	require.NoError(t, err)
	match, err := cmd.Flags().GetInt64("match")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, lead)
	assert.Equal(t, 5*time.Minute, window)
	assert.Zero(t, match)
}

func TestServeCommand_WorkersFlag(t *testing.T) {
	cmd := serveCommand()

	require.NoError(t, cmd.Flags().Parse([]string{"--workers"}))

	on, err := cmd.Flags().GetBool("workers")
	require.NoError(t, err)
	assert.True(t, on)
}
