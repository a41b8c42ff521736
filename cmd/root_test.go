package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcpdex/mcpdex/internal/config"
)

func TestDiscoveryConfig_MapsFileConfig(t *testing.T) {
	fileCfg := config.Defaults()
	fileCfg.Discovery.Queries = []string{"topic:mcp-server"}
	fileCfg.Discovery.Workers = 8
	fileCfg.Discovery.Budget = 2 * time.Minute

	runCfg := discoveryConfig(fileCfg, true, 0)

	require.Equal(t, []string{"topic:mcp-server"}, runCfg.Queries)
	require.Equal(t, "@modelcontextprotocol/sdk", runCfg.SignaturePackage)
	require.Equal(t, 8, runCfg.Workers)
	require.Equal(t, 2*time.Minute, runCfg.Budget)
	require.True(t, runCfg.Reprocess)
}

func TestDiscoveryConfig_BudgetOverride(t *testing.T) {
	runCfg := discoveryConfig(config.Defaults(), false, 30*time.Second)
	require.Equal(t, 30*time.Second, runCfg.Budget)
	require.False(t, runCfg.Reprocess)
}
