package domain

import (
	"context"
	"time"
)

// ServerRepository is the persistence contract for registry entries and
// their stats records.
type ServerRepository interface {
	// Ping verifies the store is reachable. The discovery orchestrator
	// calls it once per run and aborts the run on failure.
	Ping(ctx context.Context) error

	// FindBySourceURL looks up an entry by its canonical source URL.
	// Returns ServerNotFoundError when no entry exists.
	FindBySourceURL(ctx context.Context, sourceURL string) (*Server, error)

	// Insert conditionally inserts the entry. When an entry with the same
	// source URL already exists the insert is a no-op: inserted is false
	// and the existing behavior is untouched. On success the new ID is
	// written back to server.ID and returned with inserted=true.
	Insert(ctx context.Context, server *Server) (inserted bool, err error)

	// UpsertStats creates the stats record for a server, or on conflict
	// updates stars, forks, and the repo timestamp. Installs is only
	// written on first creation and never modified on conflict.
	UpsertStats(ctx context.Context, stats *ServerStats) error

	// GetStats returns the stats record for a server.
	// Returns ServerNotFoundError when no record exists.
	GetStats(ctx context.Context, serverID int64) (*ServerStats, error)

	// IncrementInstalls bumps the install counter. Called by the install
	// tracking collaborator, never by the discovery pipeline.
	IncrementInstalls(ctx context.Context, serverID int64, delta int) error

	// AggregateCounts reads the registry totals used by the status
	// operation, with "today"/"this week" windows anchored at now.
	AggregateCounts(ctx context.Context, now time.Time) (AggregateCounts, error)
}
