package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id             TEXT PRIMARY KEY,
	started_at     TIMESTAMPTZ NOT NULL,
	ended_at       TIMESTAMPTZ NOT NULL,
	stop_reason    TEXT NOT NULL,
	video_path     TEXT NOT NULL,
	snapshot_path  TEXT NOT NULL,
	delivered      BOOLEAN NOT NULL,
	delivery_error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_recordings_started_at ON recordings (started_at DESC);
`

// Record is one finished recording session as persisted in the catalog.
type Record struct {
	ID            string    `db:"id"`
	StartedAt     time.Time `db:"started_at"`
	EndedAt       time.Time `db:"ended_at"`
	StopReason    string    `db:"stop_reason"`
	VideoPath     string    `db:"video_path"`
	SnapshotPath  string    `db:"snapshot_path"`
	Delivered     bool      `db:"delivered"`
	DeliveryError string    `db:"delivery_error"`
}

// Store is an optional Postgres-backed index of finished sessions. Catalog
// failures are logged by the caller and never stop the capture loop.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to Postgres and creates the recordings table if needed.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &Store{db: db, logger: logger.Named("catalog")}, nil
}

// Save inserts one finished session.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	const query = `
		INSERT INTO recordings
			(id, started_at, ended_at, stop_reason, video_path, snapshot_path, delivered, delivery_error)
		VALUES
			(:id, :started_at, :ended_at, :stop_reason, :video_path, :snapshot_path, :delivered, :delivery_error)`
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to save recording %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns the most recently started sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	const query = `SELECT * FROM recordings ORDER BY started_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}
	return records, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
