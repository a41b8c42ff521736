package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpdex/mcpdex/internal/config"
	"github.com/mcpdex/mcpdex/internal/discovery"
	"github.com/mcpdex/mcpdex/internal/tracing"
)

var (
	discoverReprocess bool
	discoverBudget    time.Duration
	discoverJSON      bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass against GitHub",
	Long: `Run one discovery pass: aggregate the search queries, validate each
candidate repository, and upsert new MCP server implementations into the
registry. Prints the run report when done.

Re-running is safe: repositories already in the registry are skipped
before any network call.

Example:
  mcpdex discover                  # One run with configured queries
  mcpdex discover --budget 2m      # Tighter wall-clock budget
  mcpdex discover --reprocess      # Refresh stars/forks of known entries
  mcpdex discover --json           # Emit the raw report as JSON`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().BoolVar(&discoverReprocess, "reprocess", false,
		"revalidate known repositories and refresh their stats (installs are never touched)")
	discoverCmd.Flags().DurationVar(&discoverBudget, "budget", 0,
		"wall-clock budget for the run (overrides config)")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false,
		"print the report as JSON")
}

func runDiscover(_ *cobra.Command, _ []string) error {
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
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	orch := discovery.NewOrchestrator(
		newGitHubClient(),
		db.ServerRepository(),
		discoveryConfig(cfg, discoverReprocess, discoverBudget),
	)

	// Ctrl+C finishes the run early with a partial report.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("discovery run failed: %w", err)
	}

	if discoverJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

func printReport(r *discovery.Report) {
	fmt.Printf("Run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Printf("  discovered:  %d\n", r.Discovered)
	fmt.Printf("  processed:   %d\n", r.Processed)
	fmt.Printf("  added:       %d\n", r.Added)
	fmt.Printf("  duplicates:  %d\n", r.DuplicateSkipped)
	fmt.Printf("  failed:      %d\n", r.Failed)
	if r.Abandoned > 0 {
		fmt.Printf("  abandoned:   %d\n", r.Abandoned)
	}
	if r.Partial {
		fmt.Println("  partial:     yes (budget exhausted or interrupted)")
	}
	if len(r.Errors) > 0 {
		fmt.Println("Errors:")
		for _, e := range r.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
