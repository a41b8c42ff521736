package discovery

import (
	"context"
	"fmt"

	"github.com/mcpdex/mcpdex/internal/log"
	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// upserter writes validated candidates to the registry: a conditional
// insert keyed on source URL uniqueness, then a stats upsert keyed on the
// entry id.
type upserter struct {
	store domain.ServerRepository

	// refreshStatsOnConflict resolves the existing entry on a conflicting
	// insert and refreshes its star/fork counts. Only set for
	// administrative reprocessing; normal runs treat a conflict as a plain
	// duplicate-skip.
	refreshStatsOnConflict bool
}

// upsert persists the candidate. Returns errDuplicate on a conflicting
// insert (a concurrent or earlier run won the race), nil on success.
func (u *upserter) upsert(ctx context.Context, server *domain.Server, stats *domain.ServerStats) error {
	inserted, err := u.store.Insert(ctx, server)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", server.SourceURL, err)
	}

	if !inserted {
		if u.refreshStatsOnConflict {
			return u.refreshExisting(ctx, server, stats)
		}
		log.Debug(log.CatDiscover, "insert conflict", "sourceURL", server.SourceURL)
		return errDuplicate
	}

	stats.ServerID = server.ID
	if err := u.store.UpsertStats(ctx, stats); err != nil {
		return fmt.Errorf("upserting stats for %s: %w", server.SourceURL, err)
	}

	log.Info(log.CatDiscover, "server added", "slug", server.Slug, "category", server.Category, "stars", stats.Stars)
	return nil
}

// refreshExisting updates star/fork counts of the already-registered entry.
// The stats upsert's conflict clause leaves installs untouched.
func (u *upserter) refreshExisting(ctx context.Context, server *domain.Server, stats *domain.ServerStats) error {
	existing, err := u.store.FindBySourceURL(ctx, server.SourceURL)
	if err != nil {
		return fmt.Errorf("resolving existing entry %s: %w", server.SourceURL, err)
	}

	stats.ServerID = existing.ID
	if err := u.store.UpsertStats(ctx, stats); err != nil {
		return fmt.Errorf("refreshing stats for %s: %w", server.SourceURL, err)
	}

	log.Info(log.CatDiscover, "stats refreshed", "slug", existing.Slug, "stars", stats.Stars, "forks", stats.Forks)
	return errDuplicate
}
