package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/bdeep/internal/deploy"
)

// DefaultLimit bounds Recent when the query sets no limit.
const DefaultLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and creates when missing) a history database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseOpenFailed, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("%w: %w", ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		job TEXT NOT NULL,
		mode TEXT NOT NULL,
		action TEXT NOT NULL,
		built INTEGER NOT NULL,
		tag TEXT NOT NULL,
		entry TEXT NOT NULL,
		dry_run INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_deployments_run_id ON deployments(run_id);
	CREATE INDEX IF NOT EXISTS idx_deployments_pair ON deployments(job, mode);
	CREATE INDEX IF NOT EXISTS idx_deployments_started ON deployments(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordPair stores a pair result. It satisfies deploy.Sink.
func (s *SQLiteStore) RecordPair(ctx context.Context, result deploy.PairResult) error {
	return s.Insert(ctx, FromPairResult(result))
}

// Insert stores a record.
func (s *SQLiteStore) Insert(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deployments (run_id, job, mode, action, built, tag, entry, dry_run, started_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Job, r.Mode, r.Action, boolToInt(r.Built), r.Tag, r.Entry, boolToInt(r.DryRun),
		r.Started.UnixMilli(), r.Duration.Milliseconds(), r.Error,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	return nil
}

// Recent returns the newest records first.
func (s *SQLiteStore) Recent(ctx context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE (? = '' OR job = ?) AND (? = '' OR mode = ?) ORDER BY started_at DESC, id DESC LIMIT ?`,
		q.Job, q.Job, q.Mode, q.Mode, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// ByRun returns every record of one run in insertion order.
func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// Prune deletes records started before the cutoff and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM deployments WHERE started_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const selectColumns = `SELECT id, run_id, job, mode, action, built, tag, entry, dry_run, started_at, duration_ms, error FROM deployments`

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			r                Record
			built, dryRun    int
			startedMS, durMS int64
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Job, &r.Mode, &r.Action, &built, &r.Tag, &r.Entry, &dryRun, &startedMS, &durMS, &r.Error); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrQueryFailed, err)
		}
		r.Built = built != 0
		r.DryRun = dryRun != 0
		r.Started = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durMS) * time.Millisecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", ErrQueryFailed, err)
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
