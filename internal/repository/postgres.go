package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/pinmap/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDatabase creates a pgx connection pool for the given connection
// parameters and verifies it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the snapshot history table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS load_snapshots (
			id BIGSERIAL PRIMARY KEY,
			loaded_at TIMESTAMPTZ NOT NULL,
			source_mod_time TIMESTAMPTZ NOT NULL,
			point_count INTEGER NOT NULL,
			dropped_count INTEGER NOT NULL
		);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create load_snapshots table: %w", err)
	}

	return nil
}

// SaveSnapshot records the outcome of one fresh parse of the source file.
// It returns an error if the insert fails.
func (r *Repository) SaveSnapshot(ctx context.Context, snap models.Snapshot) error {
	query := `
		INSERT INTO load_snapshots (loaded_at, source_mod_time, point_count, dropped_count)
		VALUES ($1, $2, $3, $4);
	`

	_, err := r.db.Exec(ctx, query, snap.LoadedAt, snap.SourceModTime, snap.PointCount, snap.DroppedCount)
	if err != nil {
		return fmt.Errorf("failed to insert load snapshot: %w", err)
	}

	r.log.DebugContext(ctx, "Load snapshot recorded",
		"points", snap.PointCount, "dropped", snap.DroppedCount)

	return nil
}

// FetchRecentSnapshots retrieves the most recent load snapshots, newest first.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - limit: The maximum number of snapshots to retrieve.
//
// Returns:
// - A slice of models.Snapshot ordered by load time descending.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchRecentSnapshots(ctx context.Context, limit int) ([]models.Snapshot, error) {
	var snapshots []models.Snapshot
	query := `
		SELECT loaded_at, source_mod_time, point_count, dropped_count
		FROM load_snapshots
		ORDER BY loaded_at DESC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query load snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var snap models.Snapshot
		if errScan := rows.Scan(&snap.LoadedAt, &snap.SourceModTime, &snap.PointCount, &snap.DroppedCount); errScan != nil {
			return nil, fmt.Errorf("failed to scan load snapshot: %w", errScan)
		}
		snapshots = append(snapshots, snap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return snapshots, nil
}
