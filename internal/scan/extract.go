package scan

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/workweek"
)

// Extractor lists dated entry files inside discovered bucket directories.
type Extractor struct {
	logger *log.Logger
}

// NewExtractor creates an extractor. If logger is nil a default stderr
// logger is used.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.New(os.Stderr, "[scan] ", log.LstdFlags)
	}
	return &Extractor{logger: logger}
}

// Extract lists the entry files in dirs whose parsed date falls within
// [start, end], ascending by entry date, together with the expected-but-
// missing dates for diagnostics.
//
// Filtering happens at file granularity: a bucket spanning a range boundary
// legitimately contains files outside the range, and those are dropped here
// rather than by excluding the whole directory. Missing dates are the work
// days of each bucket (per cfg) that are in range but have no file; they
// are informational, not an error. Per-file I/O problems are logged and the
// file treated as missing, never aborting the extraction.
func (e *Extractor) Extract(ctx context.Context, dirs []journal.BucketDir, start, end time.Time, cfg workweek.Config) ([]journal.File, []time.Time, error) {
	start = workdayTrunc(start)
	end = workdayTrunc(end)

	var found []journal.File
	foundDates := make(map[string]bool)

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		entries, err := os.ReadDir(dir.Path)
		if err != nil {
			e.logger.Printf("WARNING: cannot read bucket directory %s: %v", dir.Path, err)
			continue
		}

		var files []journal.File
		for _, ent := range entries {
			if ent.IsDir() {
				continue
			}
			date, err := journal.ParseFileName(ent.Name())
			if err != nil {
				continue // unrelated file, e.g. editor droppings
			}
			if date.Before(start) || date.After(end) {
				continue
			}
			if _, err := ent.Info(); err != nil {
				e.logger.Printf("WARNING: cannot stat %s: %v (treating as missing)", ent.Name(), err)
				continue
			}
			files = append(files, journal.File{
				Path: filepath.Join(dir.Path, ent.Name()),
				Date: date,
			})
		}

		sort.Slice(files, func(i, j int) bool { return files[i].Date.Before(files[j].Date) })
		for _, f := range files {
			foundDates[f.Date.Format(journal.DateLayout)] = true
		}
		found = append(found, files...)
	}

	var missing []time.Time
	seenMissing := make(map[string]bool)
	for _, dir := range dirs {
		for _, d := range workweek.BucketDates(dir.WeekEnding, cfg) {
			if d.Before(start) || d.After(end) {
				continue
			}
			key := d.Format(journal.DateLayout)
			if foundDates[key] || seenMissing[key] {
				continue
			}
			seenMissing[key] = true
			missing = append(missing, d)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Before(missing[j]) })

	return found, missing, nil
}
