// Package cmd wires the mcpdex CLI: discover, serve, and status.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpdex/mcpdex/internal/config"
	"github.com/mcpdex/mcpdex/internal/discovery"
	"github.com/mcpdex/mcpdex/internal/github"
	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/registry/sqlite"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "mcpdex",
	Short:   "Registry and discovery pipeline for MCP server implementations",
	Long:    `mcpdex maintains a registry of MCP (Model Context Protocol) server implementations, fed by an automated GitHub discovery pipeline.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/mcpdex/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"path to the registry database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")

	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("github.timeout", defaults.GitHub.Timeout)
	viper.SetDefault("discovery.signature_package", defaults.Discovery.SignaturePackage)
	viper.SetDefault("discovery.workers", defaults.Discovery.Workers)
	viper.SetDefault("discovery.budget", defaults.Discovery.Budget)
	viper.SetDefault("discovery.per_page", defaults.Discovery.PerPage)
	viper.SetDefault("http.addr", defaults.HTTP.Addr)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	// MCPDEX_GITHUB_TOKEN, MCPDEX_HTTP_ADDR, ...
	viper.SetEnvPrefix("MCPDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .mcpdex/config.yaml (current directory)
		// 2. ~/.config/mcpdex/config.yaml (user config)
		if _, err := os.Stat(".mcpdex/config.yaml"); err == nil {
			viper.SetConfigFile(".mcpdex/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "mcpdex"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create a default user config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "mcpdex", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// initLogging sets up the file logger. Debug mode is enabled by the
// --debug flag or the MCPDEX_DEBUG env var.
func initLogging() (func(), error) {
	logPath := os.Getenv("MCPDEX_LOG")
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	if logPath == "" {
		log.SetEnabled(false)
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	if debugFlag || os.Getenv("MCPDEX_DEBUG") != "" {
		log.SetMinLevel(log.LevelDebug)
	} else {
		log.SetMinLevel(log.LevelInfo)
	}
	return cleanup, nil
}

// openDB opens the registry database from the effective configuration.
func openDB() (*sqlite.DB, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	if dbPath == "" {
		return nil, fmt.Errorf("no database path configured and home directory unavailable")
	}

	db, err := sqlite.NewDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	return db, nil
}

// newGitHubClient builds the API client from the effective configuration.
func newGitHubClient() *github.Client {
	return github.NewClient(github.Config{
		Token:     cfg.GitHub.Token,
		BaseURL:   cfg.GitHub.BaseURL,
		Timeout:   cfg.GitHub.Timeout,
		SkipCache: cfg.GitHub.SkipCache,
	})
}

// discoveryConfig maps the file configuration onto a run configuration.
func discoveryConfig(c config.Config, reprocess bool, budget time.Duration) discovery.Config {
	if budget <= 0 {
		budget = c.Discovery.Budget
	}
	return discovery.Config{
		Queries:          c.Discovery.Queries,
		SignaturePackage: c.Discovery.SignaturePackage,
		PerPage:          c.Discovery.PerPage,
		Workers:          c.Discovery.Workers,
		Budget:           budget,
		Reprocess:        reprocess,
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
