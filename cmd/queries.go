package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpdex/mcpdex/internal/config"
	"github.com/mcpdex/mcpdex/internal/discovery"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Inspect or change the discovery query list",
}

var queriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the query list a run would use",
	RunE: func(_ *cobra.Command, _ []string) error {
		for _, q := range effectiveQueries(cfg) {
			fmt.Println(q)
		}
		return nil
	},
}

var queriesSetCmd = &cobra.Command{
	Use:   "set [query]...",
	Short: "Persist a new query list to the config file",
	Long: `Persist a new discovery query list to the config file. Comments and
other sections of the file are left untouched. With no arguments the
default query list is restored.

A running serve daemon picks the change up without a restart.

Example:
  mcpdex queries set "topic:mcp-server" "mcp-server in:name"
  mcpdex queries set                    # restore the defaults`,
	RunE: runQueriesSet,
}

func init() {
	rootCmd.AddCommand(queriesCmd)
	queriesCmd.AddCommand(queriesListCmd)
	queriesCmd.AddCommand(queriesSetCmd)
}

func runQueriesSet(_ *cobra.Command, args []string) error {
	queries := args
	if len(queries) == 0 {
		queries = discovery.DefaultQueries
	}

	trial := cfg.Discovery
	trial.Queries = queries
	if err := config.ValidateDiscovery(trial); err != nil {
		return err
	}

	path := queriesConfigPath()
	if path == "" {
		return fmt.Errorf("no config file in use and home directory unavailable")
	}
	if err := config.SaveQueries(path, queries); err != nil {
		return fmt.Errorf("saving query list: %w", err)
	}

	fmt.Printf("Saved %d queries to %s\n", len(queries), path)
	return nil
}

// queriesConfigPath picks the file `queries set` writes to: the loaded
// config file when one is in use, otherwise the default user config.
func queriesConfigPath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mcpdex", "config.yaml")
}

// effectiveQueries resolves the query list a run would use.
func effectiveQueries(c config.Config) []string {
	if len(c.Discovery.Queries) == 0 {
		return discovery.DefaultQueries
	}
	return c.Discovery.Queries
}
