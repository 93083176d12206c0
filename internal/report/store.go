package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/postgres"
)

// Store persists run summaries in PostgreSQL.
//
// It requires a `featurize_runs` table:
//
//	CREATE TABLE featurize_runs (
//	    id          BIGSERIAL PRIMARY KEY,
//	    run_id      TEXT NOT NULL,
//	    data        JSONB NOT NULL,
//	    finished_at TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a new run report store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "report-store"),
	}
}

// Save persists one run summary.
func (s *Store) Save(ctx context.Context, stats Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}

	_, err = s.db.DB.ExecContext(ctx,
		`INSERT INTO featurize_runs (run_id, data, finished_at) VALUES ($1, $2, $3)`,
		stats.RunID, data, stats.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run report: %w", err)
	}

	s.logger.Info("run report saved",
		"run_id", stats.RunID,
		"train_written", stats.TrainWritten,
		"test_written", stats.TestWritten,
	)
	return nil
}

// Latest loads the most recent run summary. Returns nil, nil if no run has
// been recorded yet.
func (s *Store) Latest(ctx context.Context) (*Stats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM featurize_runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling run report: %w", err)
	}
	return &stats, nil
}

// List returns the last limit run summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Stats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM featurize_runs ORDER BY finished_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Stats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var stats Stats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt run report", "error", err)
			continue
		}
		runs = append(runs, stats)
	}

	return runs, rows.Err()
}
