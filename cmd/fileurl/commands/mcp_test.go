package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := NewMCPCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Contains(t, cmd.Long, "fileurl_resolve_many")
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	cmd := NewMCPCommand()

	debug := cmd.Flags().Lookup(flagDebug)
	require.NotNil(t, debug)
	assert.Equal(t, "false", debug.DefValue)

	addr := cmd.Flags().Lookup(flagMetricsAddr)
	require.NotNil(t, addr)
	assert.Empty(t, addr.DefValue)

	assert.NotNil(t, cmd.Flags().Lookup(flagBranch))
}
