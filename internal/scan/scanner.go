// Package scan discovers bucket directories and entry files on disk.
//
// Discovery is directory-first: bucket dates are parsed from the
// week_ending_YYYY-MM-DD directory names found on disk and are never
// computed from the requested date range. The year/month containers are
// used only as coarse pruning for speed; correctness comes from the parsed
// names alone. This inversion matters: deriving bucket dates from a range
// assigns every date in the range to the range's own end bucket and
// collapses the whole history into one directory.
package scan

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/akeller/worklog/internal/journal"
)

// Scanner walks the on-disk hierarchy under a base path.
type Scanner struct {
	base   string
	logger *log.Logger
}

// NewScanner creates a scanner rooted at base. If logger is nil a default
// stderr logger is used.
func NewScanner(base string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(os.Stderr, "[scan] ", log.LstdFlags)
	}
	return &Scanner{base: base, logger: logger}
}

// Base returns the file tree root the scanner operates on.
func (s *Scanner) Base() string {
	return s.base
}

// ScanRange returns the bucket directories whose parsed week-ending date
// falls within [start, end], ascending by that date.
//
// Malformed directory names are logged and skipped. Missing year/month
// containers (sparse history) and a missing base directory are expected,
// non-error conditions. Duplicate week-ending dates under different paths
// are retained with a warning rather than silently dropped.
func (s *Scanner) ScanRange(ctx context.Context, start, end time.Time) ([]journal.BucketDir, error) {
	start = workdayTrunc(start)
	end = workdayTrunc(end)
	if end.Before(start) {
		return nil, fmt.Errorf("scan range end %s before start %s",
			end.Format(journal.DateLayout), start.Format(journal.DateLayout))
	}

	years, err := os.ReadDir(s.base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory %s: %w", s.base, err)
	}

	var dirs []journal.BucketDir
	for _, yearEnt := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !yearEnt.IsDir() {
			continue
		}
		year, err := journal.ParseYearDirName(yearEnt.Name())
		if err != nil {
			continue // unrelated directory, not worth a log line
		}
		if year < start.Year() || year > end.Year() {
			continue
		}

		found, err := s.scanYear(ctx, yearEnt.Name(), start, end)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}

	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].WeekEnding.Equal(dirs[j].WeekEnding) {
			return dirs[i].Path < dirs[j].Path
		}
		return dirs[i].WeekEnding.Before(dirs[j].WeekEnding)
	})

	for i := 1; i < len(dirs); i++ {
		if dirs[i].WeekEnding.Equal(dirs[i-1].WeekEnding) {
			s.logger.Printf("WARNING: duplicate bucket date %s: %s and %s (keeping both)",
				dirs[i].WeekEnding.Format(journal.DateLayout), dirs[i-1].Path, dirs[i].Path)
		}
	}

	return dirs, nil
}

// scanYear enumerates the month containers of one year directory.
func (s *Scanner) scanYear(ctx context.Context, yearName string, start, end time.Time) ([]journal.BucketDir, error) {
	yearPath := filepath.Join(s.base, yearName)
	months, err := os.ReadDir(yearPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory %s: %w", yearPath, err)
	}

	var dirs []journal.BucketDir
	for _, monthEnt := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !monthEnt.IsDir() {
			continue
		}
		year, month, err := journal.ParseMonthDirName(monthEnt.Name())
		if err != nil {
			s.logger.Printf("skipping unrecognized directory %s/%s: %v", yearName, monthEnt.Name(), err)
			continue
		}
		if !monthOverlaps(year, month, start, end) {
			continue
		}

		found, err := s.scanMonth(ctx, filepath.Join(yearPath, monthEnt.Name()), start, end)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, found...)
	}
	return dirs, nil
}

// scanMonth enumerates bucket directories inside one month container,
// parsing the embedded week-ending date from each name.
func (s *Scanner) scanMonth(ctx context.Context, monthPath string, start, end time.Time) ([]journal.BucketDir, error) {
	entries, err := os.ReadDir(monthPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read month directory %s: %w", monthPath, err)
	}

	var dirs []journal.BucketDir
	for _, ent := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ent.IsDir() {
			continue
		}
		weekEnding, err := journal.ParseBucketDirName(ent.Name())
		if err != nil {
			s.logger.Printf("skipping malformed bucket directory %s: %v", ent.Name(), err)
			continue
		}
		if weekEnding.Before(start) || weekEnding.After(end) {
			continue
		}
		dirs = append(dirs, journal.BucketDir{
			Path:       filepath.Join(monthPath, ent.Name()),
			WeekEnding: weekEnding,
		})
	}
	return dirs, nil
}

// monthOverlaps reports whether the (year, month) container can hold
// buckets whose week-ending date falls in [start, end]. Pruning only; kept
// deliberately coarse so it can never exclude a qualifying bucket.
func monthOverlaps(year int, month time.Month, start, end time.Time) bool {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	startMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	endMonth := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return !last.Before(startMonth) && !first.After(endMonth)
}

func workdayTrunc(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
