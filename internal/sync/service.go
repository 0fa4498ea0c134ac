// Package sync reconciles the worklog index with the file tree.
//
// The file tree is authoritative: every operation here reads files and
// writes index rows, never the reverse. Conflicts resolve last-writer-wins
// on the file's modification time. Each operation records an append-only
// SyncRun audit row that is finalized even when the operation fails
// partway, preserving the counters accumulated up to that point.
//
// Only one sync of any type runs at a time; a second attempt is rejected
// immediately with ErrSyncRunning rather than queued.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/scan"
	"github.com/akeller/worklog/internal/workweek"
)

// ErrSyncRunning is returned when a sync is requested while another is
// active. The caller may retry later; requests are never queued.
var ErrSyncRunning = errors.New("sync already running")

// Default windows and batch size.
const (
	DefaultFullWindowDays        = 730
	DefaultIncrementalWindowDays = 14
	DefaultBatchSize             = 50
)

// Config tunes a Service.
type Config struct {
	// BatchSize bounds how many files are upserted between interruption
	// checks. Zero means DefaultBatchSize.
	BatchSize int
	// Logger for sync activity. Nil means a default stderr logger.
	Logger *log.Logger
}

// Service keeps index records consistent with the file tree.
type Service struct {
	idx       *index.DB
	scanner   *scan.Scanner
	extractor *scan.Extractor
	workweek  func() workweek.Config
	batchSize int
	logger    *log.Logger

	running atomic.Bool
}

// NewService creates a sync service. workweekFn supplies the current
// work-week configuration on each run, so config changes between runs are
// picked up without rebuilding the service.
func NewService(idx *index.DB, scanner *scan.Scanner, extractor *scan.Extractor, workweekFn func() workweek.Config, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Service{
		idx:       idx,
		scanner:   scanner,
		extractor: extractor,
		workweek:  workweekFn,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
}

// Status reports whether a sync is active and the most recent audit row.
func (s *Service) Status(ctx context.Context) (bool, *index.Run, error) {
	last, err := s.idx.LastRun(ctx)
	if err != nil {
		return false, nil, err
	}
	return s.running.Load(), last, nil
}

// Full reconciles the index against the file tree over the past windowDays
// (DefaultFullWindowDays if zero), then removes orphaned index records
// whose backing file no longer exists. Cleanup belongs to full sync only:
// a narrower window cannot safely conclude that a record outside it is
// orphaned.
func (s *Service) Full(ctx context.Context, windowDays int) (*index.Run, error) {
	if windowDays <= 0 {
		windowDays = DefaultFullWindowDays
	}
	return s.run(ctx, index.RunTypeFull, func(ctx context.Context, counts *index.Counts) error {
		end := workweek.Truncate(time.Now())
		start := end.AddDate(0, 0, -windowDays)
		if err := s.reconcile(ctx, start, end, counts); err != nil {
			return err
		}
		return s.cleanup(ctx, counts)
	})
}

// Incremental reconciles only the recent windowDays
// (DefaultIncrementalWindowDays if zero). No cleanup.
func (s *Service) Incremental(ctx context.Context, windowDays int) (*index.Run, error) {
	if windowDays <= 0 {
		windowDays = DefaultIncrementalWindowDays
	}
	return s.run(ctx, index.RunTypeIncremental, func(ctx context.Context, counts *index.Counts) error {
		end := workweek.Truncate(time.Now())
		start := end.AddDate(0, 0, -windowDays)
		return s.reconcile(ctx, start, end, counts)
	})
}

// SyncDate reconciles the index record for exactly one date. Invoked after
// every entry write. If the backing file has disappeared the record is
// removed, mirroring what a full sync would eventually do.
func (s *Service) SyncDate(ctx context.Context, date time.Time) (*index.Run, error) {
	date = workweek.Truncate(date)
	return s.run(ctx, index.RunTypeSingleEntry, func(ctx context.Context, counts *index.Counts) error {
		file, found, err := scan.FindEntryFile(ctx, s.scanner, s.extractor, date, s.workweek())
		if err != nil {
			return err
		}
		if !found {
			if _, err := s.idx.GetEntry(ctx, date); errors.Is(err, index.ErrNotFound) {
				return nil
			} else if err != nil {
				return err
			}
			if err := s.idx.DeleteEntry(ctx, date); err != nil {
				return err
			}
			counts.Removed++
			return nil
		}
		return s.upsertFile(ctx, file, counts)
	})
}

// run wraps one sync operation in the single-flight guard and its audit
// row. The SyncRun is finalized whatever happens, with partial counters on
// failure.
func (s *Service) run(ctx context.Context, syncType string, op func(context.Context, *index.Counts) error) (*index.Run, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}
	defer s.running.Store(false)

	// Audit bookkeeping runs on its own context so an already-canceled
	// operation context still leaves a complete audit trail.
	beginCtx, cancelBegin := context.WithTimeout(context.Background(), 10*time.Second)
	runID, err := s.idx.BeginRun(beginCtx, syncType)
	cancelBegin()
	if err != nil {
		return nil, fmt.Errorf("failed to record %s sync start: %w", syncType, err)
	}

	var counts index.Counts
	opErr := op(ctx, &counts)

	status := index.RunStatusCompleted
	errMsg := ""
	if opErr != nil {
		status = index.RunStatusFailed
		errMsg = opErr.Error()
		s.logger.Printf("%s sync failed after %d entries: %v", syncType, counts.Processed, opErr)
	} else {
		s.logger.Printf("%s sync complete: processed=%d added=%d updated=%d removed=%d",
			syncType, counts.Processed, counts.Added, counts.Updated, counts.Removed)
	}

	// Finalizing must not depend on the (possibly canceled) operation
	// context, or an interrupted run would vanish from the audit log.
	finalizeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.idx.FinishRun(finalizeCtx, runID, status, counts, errMsg); err != nil {
		s.logger.Printf("WARNING: failed to finalize sync run %d: %v", runID, err)
	}

	run, err := s.idx.GetRun(finalizeCtx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync run %d: %w", runID, err)
	}
	if opErr != nil {
		return run, opErr
	}
	return run, nil
}

// reconcile upserts an index record for every file discovered in
// [start, end], in ascending bucket then entry date order, batch by batch.
// The operation is interruptible between batches, never mid-file.
//
// The directory scan is widened by six days on both sides: the current
// in-progress bucket closes after end, and weekend entries can sit in a
// bucket that closed before start. Extraction re-filters to the exact
// range at file granularity.
func (s *Service) reconcile(ctx context.Context, start, end time.Time, counts *index.Counts) error {
	dirs, err := s.scanner.ScanRange(ctx, start.AddDate(0, 0, -6), end.AddDate(0, 0, 6))
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	cfg := s.workweek()
	files, missing, err := s.extractor.Extract(ctx, dirs, start, end, cfg)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if len(missing) > 0 {
		s.logger.Printf("%d expected work days have no entry file in %s..%s",
			len(missing), start.Format(journal.DateLayout), end.Format(journal.DateLayout))
	}

	for i := 0; i < len(files); i += s.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := files[i:min(i+s.batchSize, len(files))]
		for _, f := range batch {
			if err := s.upsertFile(ctx, f, counts); err != nil {
				s.logger.Printf("WARNING: failed to index %s: %v", f.Path, err)
			}
		}
	}
	return nil
}

// upsertFile indexes one discovered file, honoring last-writer-wins on the
// file's modification time. The record's week-ending date comes from the
// file's parent directory name via the path, so it reflects where the file
// actually lives.
func (s *Service) upsertFile(ctx context.Context, f journal.File, counts *index.Counts) error {
	counts.Processed++

	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.Path, err)
	}

	existing, err := s.idx.GetEntry(ctx, f.Date)
	if err != nil && !errors.Is(err, index.ErrNotFound) {
		return err
	}

	if existing != nil &&
		existing.FilePath == f.Path &&
		!info.ModTime().UTC().Truncate(time.Second).After(existing.FileModifiedAt) &&
		info.Size() == existing.FileSizeBytes {
		return nil // index already reflects the file
	}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	metrics := journal.ComputeMetrics(string(content))

	weekEnding, err := journal.ParseBucketDirName(parentName(f.Path))
	if err != nil {
		// Shouldn't happen for files produced by discovery; fall back to
		// the current config's bucket.
		weekEnding = workweek.BucketFor(f.Date, s.workweek())
	}

	rec := &index.Record{
		EntryDate:      f.Date,
		FilePath:       f.Path,
		WeekEnding:     weekEnding,
		WordCount:      metrics.WordCount,
		CharacterCount: metrics.CharacterCount,
		LineCount:      metrics.LineCount,
		FileSizeBytes:  info.Size(),
		HasContent:     metrics.HasContent,
		FileModifiedAt: info.ModTime().UTC().Truncate(time.Second),
	}
	if err := s.idx.UpsertEntry(ctx, rec); err != nil {
		return err
	}

	if existing == nil {
		counts.Added++
	} else {
		counts.Updated++
	}
	return nil
}

// cleanup deletes index records whose backing file is confirmed absent.
// Transient stat errors keep the record; only a definite not-exist removes.
func (s *Service) cleanup(ctx context.Context, counts *index.Counts) error {
	recs, err := s.idx.AllEntries(ctx)
	if err != nil {
		return fmt.Errorf("cleanup listing failed: %w", err)
	}

	for i, rec := range recs {
		if i%s.batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		_, err := os.Stat(rec.FilePath)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			s.logger.Printf("WARNING: cannot stat %s during cleanup: %v (keeping record)", rec.FilePath, err)
			continue
		}
		if err := s.idx.DeleteEntry(ctx, rec.EntryDate); err != nil {
			s.logger.Printf("WARNING: failed to remove orphan %s: %v", rec.EntryDate.Format(journal.DateLayout), err)
			continue
		}
		s.logger.Printf("removed orphaned index record for %s (%s gone)",
			rec.EntryDate.Format(journal.DateLayout), rec.FilePath)
		counts.Removed++
	}
	return nil
}

func parentName(path string) string {
	return filepath.Base(filepath.Dir(path))
}
