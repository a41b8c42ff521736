package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpdex/mcpdex/internal/api"
	"github.com/mcpdex/mcpdex/internal/config"
	"github.com/mcpdex/mcpdex/internal/discovery"
	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/tracing"
	"github.com/mcpdex/mcpdex/internal/watcher"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery service daemon",
	Long: `Run the discovery service as a daemon exposing an HTTP API.

Endpoints:
  POST /discovery/runs    trigger a run, returns the report
  GET  /discovery/events  SSE stream of run progress
  GET  /registry/status   aggregate registry counts
  GET  /health            liveness probe

While running, edits to the config file's discovery.queries list are
picked up without a restart.

Example:
  mcpdex serve                     # Listen on the configured address
  mcpdex serve --addr :8080        # Listen on port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store := db.ServerRepository()
	orch := discovery.NewOrchestrator(
		newGitHubClient(),
		store,
		discoveryConfig(cfg, false, 0),
	)

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	server, err := api.NewServer(api.ServerConfig{
		Addr: addr,
		Handler: api.NewHandler(api.HandlerConfig{
			Runner: orch,
			Store:  store,
			Token:  cfg.HTTP.Token,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Watch the config file so query list edits apply without a restart.
	stopWatch := startQueryReload(orch)
	defer stopWatch()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The daemon runs in the foreground; mirror log lines to stderr so
	// operators see them without tailing the log file.
	startLogTee(ctx, os.Stderr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("mcpdex daemon listening on port %d\n", server.Port())
	fmt.Println("Press Ctrl+C to stop")

	select {
	case sig := <-sigCh:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error(log.CatHTTP, "Error stopping API server", "error", err)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.Error(log.CatHTTP, "Error shutting down tracing", "error", err)
	}

	fmt.Println("Daemon stopped")
	return nil
}

// startLogTee copies published log entries to w until ctx is cancelled.
// No-op when logging is disabled.
func startLogTee(ctx context.Context, w io.Writer) {
	listener := log.NewListener(ctx)
	if listener == nil {
		return
	}
	go func() {
		for {
			event, ok := listener.Next()
			if !ok {
				return
			}
			_, _ = io.WriteString(w, event.Payload)
		}
	}()
}

// startQueryReload watches the loaded config file and swaps the
// orchestrator's query list on change. Returns a stop function; when no
// config file is in use it is a no-op.
func startQueryReload(orch *discovery.Orchestrator) func() {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		return func() {}
	}

	w, err := watcher.New(watcher.DefaultConfig(configPath))
	if err != nil {
		log.ErrorErr(log.CatWatcher, "config watcher unavailable", err, "path", configPath)
		return func() {}
	}

	onChange, err := w.Start()
	if err != nil {
		log.ErrorErr(log.CatWatcher, "config watcher failed to start", err, "path", configPath)
		_ = w.Stop()
		return func() {}
	}

	go func() {
		for range onChange {
			if err := viper.ReadInConfig(); err != nil {
				log.ErrorErr(log.CatWatcher, "config reload failed", err, "path", configPath)
				continue
			}
			var fresh config.Config
			if err := viper.Unmarshal(&fresh); err != nil {
				log.ErrorErr(log.CatWatcher, "config reload unmarshal failed", err, "path", configPath)
				continue
			}
			if err := config.ValidateDiscovery(fresh.Discovery); err != nil {
				log.ErrorErr(log.CatWatcher, "config reload rejected", err, "path", configPath)
				continue
			}

			orch.UpdateQueries(fresh.Discovery.Queries)
			log.Info(log.CatWatcher, "query list reloaded", "queries", len(fresh.Discovery.Queries))
		}
	}()

	log.Info(log.CatWatcher, "watching config for query changes", "path", configPath)
	return func() { _ = w.Stop() }
}
