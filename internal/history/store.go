package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"isbndate/internal/resolver"
	"isbndate/internal/services"
)

const defaultRunLimit = 20

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "database path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a running run for input and returns its new ID.
func (s *Store) BeginRun(ctx context.Context, input string, total int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, status, started_at, total, pending) VALUES (?, ?, ?, ?, ?, ?)`,
		id, input, RunRunning, formatTime(time.Now()), total, total,
	)
	if err != nil {
		return "", services.Wrap(services.ErrStorage, "history", "begin run", input, err)
	}
	return id, nil
}

// RecordCheckpoint appends cp and refreshes the run's counters.
func (s *Store) RecordCheckpoint(ctx context.Context, cp Checkpoint) error {
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkpoints (run_id, chunk_index, chunks, processed, from_cache, from_api, not_found, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.RunID, cp.ChunkIndex, cp.Chunks, cp.Processed, cp.FromCache, cp.FromAPI, cp.NotFound, formatTime(cp.CreatedAt),
	); err != nil {
		return services.Wrap(services.ErrStorage, "history", "record checkpoint", cp.RunID, err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET from_cache = ?, from_api = ?, not_found = ?, pending = total - ? WHERE id = ?`,
		cp.FromCache, cp.FromAPI, cp.NotFound, cp.Processed, cp.RunID,
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "history", "record checkpoint", cp.RunID, err)
	}
	if err := requireRow(res, cp.RunID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// CheckpointFromChunk converts a resolver chunk report for runID.
func CheckpointFromChunk(runID string, chunk resolver.ChunkReport) Checkpoint {
	return Checkpoint{
		RunID:      runID,
		ChunkIndex: chunk.Index,
		Chunks:     chunk.Chunks,
		Processed:  chunk.Processed,
		FromCache:  chunk.Stats.FromCache,
		FromAPI:    chunk.Stats.FromAPI,
		NotFound:   chunk.Stats.NotFound,
	}
}

// FinishRun stores the final counters and status. runErr, when non-nil, is
// recorded as the failure reason.
func (s *Store) FinishRun(ctx context.Context, id string, stats resolver.Stats, status RunStatus, runErr error) error {
	var message any
	if runErr != nil {
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, total = ?, from_cache = ?, from_api = ?, not_found = ?, pending = ?, error_message = ?
         WHERE id = ?`,
		status, formatTime(time.Now()), stats.Total, stats.FromCache, stats.FromAPI, stats.NotFound, stats.Pending, message, id,
	)
	if err != nil {
		return services.Wrap(services.ErrStorage, "history", "finish run", id, err)
	}
	return requireRow(res, id)
}

// Run fetches one run by ID; nil when absent.
func (s *Store) Run(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Checkpoints lists a run's checkpoints in chunk order.
func (s *Store) Checkpoints(ctx context.Context, runID string) ([]Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, chunk_index, chunks, processed, from_cache, from_api, not_found, created_at
         FROM checkpoints WHERE run_id = ? ORDER BY chunk_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var (
			cp      Checkpoint
			created string
		)
		if err := rows.Scan(&cp.RunID, &cp.ChunkIndex, &cp.Chunks, &cp.Processed,
			&cp.FromCache, &cp.FromAPI, &cp.NotFound, &created); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cp.CreatedAt = parseTime(created)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Clear removes every run and checkpoint.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "history", "clear", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checkpoints`); err != nil {
		return 0, services.Wrap(services.ErrStorage, "history", "clear", "delete checkpoints", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "history", "clear", "delete runs", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "history", "clear", "count runs", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, services.Wrap(services.ErrStorage, "history", "clear", "commit", err)
	}
	return removed, nil
}
