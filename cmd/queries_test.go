package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/mcpdex/mcpdex/internal/config"
	"github.com/mcpdex/mcpdex/internal/discovery"
)

func TestEffectiveQueries_DefaultFallback(t *testing.T) {
	require.Equal(t, discovery.DefaultQueries, effectiveQueries(config.Config{}))

	c := config.Config{}
	c.Discovery.Queries = []string{"topic:mcp-server"}
	require.Equal(t, []string{"topic:mcp-server"}, effectiveQueries(c))
}

func TestQueriesSet_WritesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	viper.SetConfigFile(path)
	t.Cleanup(viper.Reset)

	require.NoError(t, runQueriesSet(nil, []string{"topic:mcp-server", "mcp-server in:name"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "topic:mcp-server")
	require.Contains(t, string(data), "mcp-server in:name")
}

func TestQueriesSet_NoArgsRestoresDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	viper.SetConfigFile(path)
	t.Cleanup(viper.Reset)

	require.NoError(t, runQueriesSet(nil, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, q := range discovery.DefaultQueries {
		require.Contains(t, string(data), q)
	}
}

func TestQueriesSet_RejectsBlankQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	viper.SetConfigFile(path)
	t.Cleanup(viper.Reset)

	require.Error(t, runQueriesSet(nil, []string{"topic:mcp-server", "   "}))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "invalid list must not be written")
}
