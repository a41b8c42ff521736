package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcpdex/mcpdex/internal/registry/domain"
)

// serverColumns is the list of columns to select for server queries.
const serverColumns = `id, name, slug, tagline, description, category, tags,
	source_url, owner, package_name, verified, featured, created_at, updated_at`

// serverRepository implements domain.ServerRepository using SQLite.
type serverRepository struct {
	db *sql.DB
}

func newServerRepository(db *sql.DB) *serverRepository {
	return &serverRepository{db: db}
}

// Ensure serverRepository implements domain.ServerRepository.
var _ domain.ServerRepository = (*serverRepository)(nil)

// scanServer scans a row into a ServerModel.
func scanServer(scanner interface{ Scan(...any) error }) (*ServerModel, error) {
	var model ServerModel
	err := scanner.Scan(
		&model.ID, &model.Name, &model.Slug, &model.Tagline, &model.Description,
		&model.Category, &model.Tags, &model.SourceURL, &model.Owner,
		&model.PackageName, &model.Verified, &model.Featured,
		&model.CreatedAt, &model.UpdatedAt,
	)
	return &model, err
}

// Ping verifies the database connection is usable.
func (r *serverRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("registry store unreachable: %w", err)
	}
	return nil
}

// FindBySourceURL retrieves a server by its canonical source URL.
// Returns ServerNotFoundError if no matching entry exists.
func (r *serverRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*domain.Server, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE source_url = ?`,
		sourceURL,
	)
	model, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ServerNotFoundError{SourceURL: sourceURL}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find server by source url: %w", err)
	}
	return model.toDomain(), nil
}

// Insert conditionally inserts a server keyed on source URL uniqueness.
// A conflicting source URL makes the insert a silent no-op (inserted=false).
// A conflicting slug for a different URL is a real error: the store's
// uniqueness constraint is the registry's slug collision handling.
func (r *serverRepository) Insert(ctx context.Context, server *domain.Server) (bool, error) {
	model := toServerModel(server)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO servers (
			name, slug, tagline, description, category, tags,
			source_url, owner, package_name, verified, featured,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO NOTHING`,
		model.Name, model.Slug, model.Tagline, model.Description, model.Category,
		model.Tags, model.SourceURL, model.Owner, model.PackageName,
		model.Verified, model.Featured, model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert server: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}
	server.ID = id
	return true, nil
}

// UpsertStats creates or updates the stats record for a server.
// On conflict only stars, forks, and repo_updated_at change; installs keeps
// its prior value so re-discovery can never reset install counts.
func (r *serverRepository) UpsertStats(ctx context.Context, stats *domain.ServerStats) error {
	model := toStatsModel(stats)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO server_stats (server_id, stars, forks, installs, repo_updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(server_id) DO UPDATE SET
			stars = excluded.stars,
			forks = excluded.forks,
			repo_updated_at = excluded.repo_updated_at`,
		model.ServerID, model.Stars, model.Forks, model.Installs, model.RepoUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stats: %w", err)
	}
	return nil
}

// GetStats retrieves the stats record for a server.
func (r *serverRepository) GetStats(ctx context.Context, serverID int64) (*domain.ServerStats, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT server_id, stars, forks, installs, repo_updated_at
		FROM server_stats WHERE server_id = ?`,
		serverID,
	)

	var model StatsModel
	err := row.Scan(&model.ServerID, &model.Stars, &model.Forks, &model.Installs, &model.RepoUpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ServerNotFoundError{ServerID: serverID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return model.toDomain(), nil
}

// IncrementInstalls bumps the install counter by delta.
func (r *serverRepository) IncrementInstalls(ctx context.Context, serverID int64, delta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE server_stats SET installs = installs + ? WHERE server_id = ?`,
		delta, serverID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment installs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.ServerNotFoundError{ServerID: serverID}
	}
	return nil
}

// AggregateCounts reads registry totals for the status surface.
func (r *serverRepository) AggregateCounts(ctx context.Context, now time.Time) (domain.AggregateCounts, error) {
	dayAgo := now.Add(-24 * time.Hour).Unix()
	weekAgo := now.Add(-7 * 24 * time.Hour).Unix()

	var counts domain.AggregateCounts
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(verified), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM servers`,
		dayAgo, weekAgo,
	).Scan(&counts.Total, &counts.Verified, &counts.AddedToday, &counts.AddedWeek)
	if err != nil {
		return domain.AggregateCounts{}, fmt.Errorf("failed to read aggregate counts: %w", err)
	}
	return counts, nil
}
