package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print aggregate registry counts",
	Long: `Print aggregate counts from the registry: total entries, verified
entries, and entries added in the last day and week.

Example:
  mcpdex status
  mcpdex status --json | jq .total`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print counts as JSON")
}

func runStatus(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := db.ServerRepository().AggregateCounts(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("reading registry counts: %w", err)
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{
			"total":       counts.Total,
			"verified":    counts.Verified,
			"added_today": counts.AddedToday,
			"added_week":  counts.AddedWeek,
		})
	}

	fmt.Printf("Registry: %d servers (%d verified)\n", counts.Total, counts.Verified)
	fmt.Printf("  added today:     %d\n", counts.AddedToday)
	fmt.Printf("  added this week: %d\n", counts.AddedWeek)
	return nil
}
