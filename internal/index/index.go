// Package index provides the SQLite-backed secondary index over the
// worklog file tree.
//
// The index is a derived, rebuildable projection: the file tree is
// authoritative and every row here can be discarded and recomputed by a
// full sync without data loss. The database runs embedded (ncruces
// go-sqlite3) with WAL mode so query paths can read while a sync writes.
//
// Schema:
//   - entries: one row per entry date, keyed by the date, carrying the
//     file path, week-ending date, content metrics and bookkeeping times
//   - sync_runs: append-only audit log of synchronization runs
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when no index record exists for a date.
var ErrNotFound = errors.New("index: entry not found")

// DateLayout is how entry and week-ending dates are stored in columns.
const DateLayout = "2006-01-02"

// DB wraps the embedded SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the index database at path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// The caller must Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping index database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close closes the connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close index database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the tables and indexes if they don't exist.
// Idempotent, safe to call on every startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		entry_date TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		week_ending_date TEXT NOT NULL,
		word_count INTEGER NOT NULL DEFAULT 0,
		character_count INTEGER NOT NULL DEFAULT 0,
		line_count INTEGER NOT NULL DEFAULT 0,
		file_size_bytes INTEGER NOT NULL DEFAULT 0,
		has_content INTEGER NOT NULL DEFAULT 0,
		file_modified_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		synced_at TEXT NOT NULL,
		last_accessed_at TEXT,
		access_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sync_type TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		status TEXT NOT NULL DEFAULT 'running',
		entries_processed INTEGER NOT NULL DEFAULT 0,
		entries_added INTEGER NOT NULL DEFAULT 0,
		entries_updated INTEGER NOT NULL DEFAULT 0,
		entries_removed INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_week_ending ON entries(week_ending_date);
	CREATE INDEX IF NOT EXISTS idx_entries_file_modified ON entries(file_modified_at);
	CREATE INDEX IF NOT EXISTS idx_entries_has_content ON entries(has_content);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Record is one index row: the queryable projection of an entry file.
type Record struct {
	EntryDate      time.Time
	FilePath       string
	WeekEnding     time.Time
	WordCount      int
	CharacterCount int
	LineCount      int
	FileSizeBytes  int64
	HasContent     bool
	FileModifiedAt time.Time
	CreatedAt      time.Time
	ModifiedAt     time.Time
	SyncedAt       time.Time
	LastAccessedAt *time.Time
	AccessCount    int
}

// UpsertEntry inserts or updates the record for rec.EntryDate.
//
// On update the row's created_at, last_accessed_at and access_count are
// preserved; everything derived from the file is overwritten (the file
// always wins over the index).
func (db *DB) UpsertEntry(ctx context.Context, rec *Record) error {
	if rec.EntryDate.IsZero() {
		return fmt.Errorf("entry record requires an entry date")
	}
	if rec.FilePath == "" {
		return fmt.Errorf("entry record for %s requires a file path", rec.EntryDate.Format(DateLayout))
	}

	now := time.Now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	synced := rec.SyncedAt
	if synced.IsZero() {
		synced = now
	}

	query := `
	INSERT INTO entries (
		entry_date, file_path, week_ending_date,
		word_count, character_count, line_count, file_size_bytes, has_content,
		file_modified_at, created_at, modified_at, synced_at, access_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	ON CONFLICT(entry_date) DO UPDATE SET
		file_path = excluded.file_path,
		week_ending_date = excluded.week_ending_date,
		word_count = excluded.word_count,
		character_count = excluded.character_count,
		line_count = excluded.line_count,
		file_size_bytes = excluded.file_size_bytes,
		has_content = excluded.has_content,
		file_modified_at = excluded.file_modified_at,
		modified_at = excluded.modified_at,
		synced_at = excluded.synced_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		rec.EntryDate.Format(DateLayout),
		rec.FilePath,
		rec.WeekEnding.Format(DateLayout),
		rec.WordCount,
		rec.CharacterCount,
		rec.LineCount,
		rec.FileSizeBytes,
		boolToInt(rec.HasContent),
		rec.FileModifiedAt.UTC().Format(time.RFC3339),
		created.Format(time.RFC3339),
		now.Format(time.RFC3339),
		synced.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", rec.EntryDate.Format(DateLayout), err)
	}
	return nil
}

// GetEntry retrieves the record for a date, or ErrNotFound.
func (db *DB) GetEntry(ctx context.Context, date time.Time) (*Record, error) {
	row := db.conn.QueryRowContext(ctx, selectColumns+` FROM entries WHERE entry_date = ?`,
		date.Format(DateLayout))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", date.Format(DateLayout), err)
	}
	return rec, nil
}

// DeleteEntry removes the record for a date. Idempotent.
func (db *DB) DeleteEntry(ctx context.Context, date time.Time) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM entries WHERE entry_date = ?`,
		date.Format(DateLayout))
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", date.Format(DateLayout), err)
	}
	return nil
}

// TouchAccess records a read of the entry: bumps access_count and sets
// last_accessed_at. A missing row is not an error; reads of unindexed
// entries are simply not tracked.
func (db *DB) TouchAccess(ctx context.Context, date time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE entries
		SET last_accessed_at = ?, access_count = access_count + 1
		WHERE entry_date = ?`,
		time.Now().UTC().Format(time.RFC3339),
		date.Format(DateLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to touch entry %s: %w", date.Format(DateLayout), err)
	}
	return nil
}

// RangeFilter narrows ListRange results.
type RangeFilter struct {
	// NonEmptyOnly keeps only entries with content.
	NonEmptyOnly bool
	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// ListRecent returns up to limit records ordered by entry date descending.
func (db *DB) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + ` FROM entries ORDER BY entry_date DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent entries: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListRange returns records with entry dates in [start, end], ascending.
func (db *DB) ListRange(ctx context.Context, start, end time.Time, filter RangeFilter) ([]*Record, error) {
	query := selectColumns + ` FROM entries WHERE entry_date >= ? AND entry_date <= ?`
	args := []interface{}{start.Format(DateLayout), end.Format(DateLayout)}

	if filter.NonEmptyOnly {
		query += " AND has_content = 1"
	}
	query += " ORDER BY entry_date ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries in range: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// AllEntries returns every record, ascending by entry date. Used by full
// sync cleanup to find orphans.
func (db *DB) AllEntries(ctx context.Context) ([]*Record, error) {
	rows, err := db.conn.QueryContext(ctx, selectColumns+` FROM entries ORDER BY entry_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list all entries: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// EntryCount returns the number of index records.
func (db *DB) EntryCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

const selectColumns = `
	SELECT entry_date, file_path, week_ending_date,
	       word_count, character_count, line_count, file_size_bytes, has_content,
	       file_modified_at, created_at, modified_at, synced_at,
	       last_accessed_at, access_count`

// rowScanner lets scanRecord work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var entryDate, weekEnding string
	var hasContent int
	var fileModified, created, modified, synced string
	var lastAccessed sql.NullString

	err := row.Scan(
		&entryDate,
		&rec.FilePath,
		&weekEnding,
		&rec.WordCount,
		&rec.CharacterCount,
		&rec.LineCount,
		&rec.FileSizeBytes,
		&hasContent,
		&fileModified,
		&created,
		&modified,
		&synced,
		&lastAccessed,
		&rec.AccessCount,
	)
	if err != nil {
		return nil, err
	}

	rec.EntryDate, err = time.Parse(DateLayout, entryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid entry_date %q: %w", entryDate, err)
	}
	rec.WeekEnding, err = time.Parse(DateLayout, weekEnding)
	if err != nil {
		return nil, fmt.Errorf("invalid week_ending_date %q: %w", weekEnding, err)
	}
	rec.HasContent = hasContent != 0
	rec.FileModifiedAt = parseRFC3339(fileModified)
	rec.CreatedAt = parseRFC3339(created)
	rec.ModifiedAt = parseRFC3339(modified)
	rec.SyncedAt = parseRFC3339(synced)
	if lastAccessed.Valid {
		t := parseRFC3339(lastAccessed.String)
		rec.LastAccessedAt = &t
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return recs, nil
}

func parseRFC3339(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
