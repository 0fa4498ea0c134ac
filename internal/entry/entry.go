// Package entry reads and writes worklog entry files.
//
// Entries live in the file tree, one text file per date inside its
// work-week bucket directory. The tree is the source of truth; the index
// is only touched for access bookkeeping and, via the AfterSave hook, for
// post-write synchronization. A failure on the index side never fails a
// read or write that already succeeded on disk.
package entry

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/scan"
	"github.com/akeller/worklog/internal/workweek"
)

// Manager reads and writes entry files for single dates.
type Manager struct {
	scanner   *scan.Scanner
	extractor *scan.Extractor
	idx       *index.DB
	workweek  func() workweek.Config
	logger    *log.Logger

	// afterSave runs after every successful file write, typically wired to
	// a single-entry index sync. Errors are logged, never propagated.
	afterSave func(context.Context, time.Time) error
}

// Config assembles a Manager.
type Config struct {
	Scanner   *scan.Scanner
	Extractor *scan.Extractor
	Index     *index.DB
	WorkWeek  func() workweek.Config
	AfterSave func(context.Context, time.Time) error
	Logger    *log.Logger
}

// NewManager creates an entry manager. Index and AfterSave may be nil, in
// which case access bookkeeping and post-write sync are skipped.
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[entry] ", log.LstdFlags)
	}
	return &Manager{
		scanner:   cfg.Scanner,
		extractor: cfg.Extractor,
		idx:       cfg.Index,
		workweek:  cfg.WorkWeek,
		logger:    cfg.Logger,
		afterSave: cfg.AfterSave,
	}
}

// GetContent returns the entry content for a date, with found=false when no
// entry file exists. Discovery goes through the file tree, not the index,
// so entries filed under an earlier work-week configuration are still
// found. A successful read bumps the index access bookkeeping best-effort.
func (m *Manager) GetContent(ctx context.Context, date time.Time) (string, bool, error) {
	date = workweek.Truncate(date)

	file, found, err := scan.FindEntryFile(ctx, m.scanner, m.extractor, date, m.workweek())
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read entry for %s: %w", date.Format(journal.DateLayout), err)
	}

	if m.idx != nil {
		if err := m.idx.TouchAccess(ctx, date); err != nil {
			m.logger.Printf("WARNING: failed to record access for %s: %v", date.Format(journal.DateLayout), err)
		}
	}
	return string(content), true, nil
}

// SaveContent writes the entry for a date, creating bucket directories as
// needed. When a file for the date already exists anywhere in the tree its
// path wins, so a work-week config change never forks an entry into a
// second location. Returns the path written.
func (m *Manager) SaveContent(ctx context.Context, date time.Time, content string) (string, error) {
	date = workweek.Truncate(date)

	path, err := m.resolvePath(ctx, date)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory for %s: %w", date.Format(journal.DateLayout), err)
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("failed to write entry for %s: %w", date.Format(journal.DateLayout), err)
	}

	if m.afterSave != nil {
		if err := m.afterSave(ctx, date); err != nil {
			m.logger.Printf("WARNING: entry for %s saved but index sync failed: %v", date.Format(journal.DateLayout), err)
		}
	}
	return path, nil
}

// resolvePath returns the existing file path for the date if one is on
// disk, else the canonical path under the current work-week config.
func (m *Manager) resolvePath(ctx context.Context, date time.Time) (string, error) {
	cfg := m.workweek()
	file, found, err := scan.FindEntryFile(ctx, m.scanner, m.extractor, date, cfg)
	if err != nil {
		return "", err
	}
	if found {
		return file.Path, nil
	}
	return journal.EntryPath(m.scanner.Base(), date, workweek.BucketFor(date, cfg)), nil
}

// writeFileAtomic writes via a temp file in the target directory followed
// by rename, so a crash mid-write never leaves a truncated entry.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
