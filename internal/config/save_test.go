package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type savedConfig struct {
	Discovery struct {
		Queries []string `yaml:"queries"`
	} `yaml:"discovery"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
}

func readSaved(t *testing.T, path string) savedConfig {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out savedConfig
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out
}

func TestSaveQueries_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	queries := []string{"topic:mcp-server", "mcp-server in:name"}
	require.NoError(t, SaveQueries(path, queries))

	saved := readSaved(t, path)
	require.Equal(t, queries, saved.Discovery.Queries)
}

func TestSaveQueries_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	initial := `# my config
http:
  addr: localhost:9999

discovery:
  workers: 8
  queries:
    - old-query
`
	require.NoError(t, os.WriteFile(path, []byte(initial), 0644))

	require.NoError(t, SaveQueries(path, []string{"topic:mcp-server"}))

	saved := readSaved(t, path)
	require.Equal(t, []string{"topic:mcp-server"}, saved.Discovery.Queries)
	require.Equal(t, "localhost:9999", saved.HTTP.Addr, "other sections must survive")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# my config", "comments must survive")
	require.Contains(t, string(data), "workers: 8", "sibling discovery keys must survive")
}

func TestSaveQueries_AppendsDiscoverySection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: localhost:8480\n"), 0644))

	require.NoError(t, SaveQueries(path, []string{"topic:mcp-server"}))

	saved := readSaved(t, path)
	require.Equal(t, []string{"topic:mcp-server"}, saved.Discovery.Queries)
	require.Equal(t, "localhost:8480", saved.HTTP.Addr)
}

func TestSaveQueries_EmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SaveQueries(path, nil))

	saved := readSaved(t, path)
	require.Empty(t, saved.Discovery.Queries)
}
