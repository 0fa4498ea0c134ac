package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sync run types.
const (
	RunTypeFull        = "full"
	RunTypeIncremental = "incremental"
	RunTypeSingleEntry = "single_entry"
)

// Sync run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one row of the append-only sync audit log. Rows are created when a
// sync starts and finalized exactly once; terminal fields are never
// rewritten afterward.
type Run struct {
	ID           int64
	Type         string
	StartedAt    time.Time
	CompletedAt  *time.Time
	Status       string
	Processed    int
	Added        int
	Updated      int
	Removed      int
	ErrorMessage string
}

// Counts carries the per-run counters accumulated during a sync.
type Counts struct {
	Processed int
	Added     int
	Updated   int
	Removed   int
}

// BeginRun inserts a running sync_runs row and returns its id.
func (db *DB) BeginRun(ctx context.Context, syncType string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (sync_type, started_at, status)
		VALUES (?, ?, ?)`,
		syncType,
		time.Now().UTC().Format(time.RFC3339),
		RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to begin %s sync run: %w", syncType, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get sync run id: %w", err)
	}
	return id, nil
}

// FinishRun finalizes a run with its terminal status, counters and optional
// error message. Partial counters from an interrupted run are preserved.
func (db *DB) FinishRun(ctx context.Context, id int64, status string, counts Counts, errMsg string) error {
	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sync_runs SET
			completed_at = ?,
			status = ?,
			entries_processed = ?,
			entries_added = ?,
			entries_updated = ?,
			entries_removed = ?,
			error_message = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		status,
		counts.Processed,
		counts.Added,
		counts.Updated,
		counts.Removed,
		msg,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %d: %w", id, err)
	}
	return nil
}

// GetRun retrieves one sync run by id.
func (db *DB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, runColumns+` FROM sync_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run %d: %w", id, err)
	}
	return run, nil
}

// LastRun returns the most recently started run, or nil if none exist.
func (db *DB) LastRun(ctx context.Context) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, runColumns+` FROM sync_runs ORDER BY id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := runColumns + ` FROM sync_runs ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return runs, nil
}

const runColumns = `
	SELECT id, sync_type, started_at, completed_at, status,
	       entries_processed, entries_added, entries_updated, entries_removed,
	       error_message`

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started string
	var completed, errMsg sql.NullString

	err := row.Scan(
		&run.ID,
		&run.Type,
		&started,
		&completed,
		&run.Status,
		&run.Processed,
		&run.Added,
		&run.Updated,
		&run.Removed,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = parseRFC3339(started)
	if completed.Valid {
		t := parseRFC3339(completed.String)
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMessage = errMsg.String
	}
	return &run, nil
}
