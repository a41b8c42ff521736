// Package config provides configuration types and defaults for mcpdex.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/tracing"
)

// Config holds all configuration options for mcpdex.
type Config struct {
	DBPath    string          `mapstructure:"db_path"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Tracing   tracing.Config  `mapstructure:"tracing"`
}

// GitHubConfig holds GitHub API client settings.
type GitHubConfig struct {
	// Token is the API token. Unauthenticated search is limited to 10
	// requests per minute, so a token is strongly recommended.
	Token string `mapstructure:"token"`

	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string `mapstructure:"base_url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// SkipCache disables the repo-metadata read-through cache.
	SkipCache bool `mapstructure:"skip_cache"`
}

// DiscoveryConfig holds discovery run settings.
type DiscoveryConfig struct {
	// Queries are the GitHub search queries aggregated each run.
	// Empty means the built-in default query list.
	Queries []string `mapstructure:"queries"`

	// SignaturePackage is the manifest dependency that marks a repo as an
	// MCP server implementation.
	SignaturePackage string `mapstructure:"signature_package"`

	// Workers bounds per-candidate concurrency.
	Workers int `mapstructure:"workers"`

	// Budget is the wall-clock budget for a run (e.g. "5m").
	Budget time.Duration `mapstructure:"budget"`

	// PerPage is the search page size (max 100 on the GitHub API).
	PerPage int `mapstructure:"per_page"`
}

// HTTPConfig holds the serve command's listener settings.
type HTTPConfig struct {
	// Addr is the listen address for the HTTP API.
	Addr string `mapstructure:"addr"`

	// Token, when set, is required as a bearer token on API requests.
	// Health stays open regardless.
	Token string `mapstructure:"token"`
}

// DefaultDBPath returns the default registry database path.
// Returns ~/.mcpdex/mcpdex.db or empty string if home dir unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mcpdex", "mcpdex.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/mcpdex/traces/traces.jsonl or empty string if home dir
// unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mcpdex", "traces", "traces.jsonl")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mcpdex", "mcpdex.log")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DBPath: DefaultDBPath(),
		GitHub: GitHubConfig{
			Timeout: 30 * time.Second,
		},
		Discovery: DiscoveryConfig{
			SignaturePackage: "@modelcontextprotocol/sdk",
			Workers:          4,
			Budget:           5 * time.Minute,
			PerPage:          100,
		},
		HTTP: HTTPConfig{
			Addr: "localhost:8480",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values use defaults
// and are always valid.
func Validate(cfg Config) error {
	if err := ValidateDiscovery(cfg.Discovery); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return nil
}

// ValidateDiscovery checks discovery configuration for errors.
func ValidateDiscovery(d DiscoveryConfig) error {
	if d.Workers < 0 {
		return fmt.Errorf("discovery.workers must not be negative, got %d", d.Workers)
	}
	if d.Budget < 0 {
		return fmt.Errorf("discovery.budget must not be negative, got %v", d.Budget)
	}
	if d.PerPage < 0 || d.PerPage > 100 {
		return fmt.Errorf("discovery.per_page must be between 0 and 100, got %d", d.PerPage)
	}
	for i, q := range d.Queries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("discovery.queries[%d] must not be empty", i)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	if t.Exporter != "" {
		switch t.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
		}
	}

	// Path requirements only bind when tracing is enabled
	if t.Enabled {
		if t.Exporter == "file" && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with
// comments.
func DefaultConfigTemplate() string {
	return `# mcpdex Configuration

# Path to the registry database (default: ~/.mcpdex/mcpdex.db)
# db_path: /path/to/mcpdex.db

# GitHub API client
github:
  # API token. Unauthenticated search is limited to 10 requests/minute,
  # so set one. Also read from the MCPDEX_GITHUB_TOKEN env var.
  # token: ghp_yourtoken

  # Override the API endpoint (GitHub Enterprise)
  # base_url: https://github.example.com/api/v3

  # Per-request timeout
  timeout: 30s

# Discovery pipeline
discovery:
  # Search queries aggregated each run. Omit for the built-in list:
  #   "@modelcontextprotocol/sdk" in:file filename:package.json
  #   topic:mcp-server
  #   topic:model-context-protocol
  #   mcp-server in:name
  # queries:
  #   - topic:mcp-server
  #   - topic:model-context-protocol

  # Dependency that marks a repo as an MCP server implementation
  signature_package: "@modelcontextprotocol/sdk"

  # Concurrent candidate workers. Keep small to respect GitHub's
  # secondary rate limits.
  workers: 4

  # Wall-clock budget per run; remaining candidates are abandoned and
  # the report is marked partial when it expires.
  budget: 5m

# HTTP API (serve command)
http:
  addr: localhost:8480

  # Optional shared bearer token required on API requests
  # token: changeme

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp
#   file_path: ~/.config/mcpdex/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
