package scan

import (
	"context"
	"time"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/workweek"
)

// FindEntryFile locates the on-disk file for one entry date, if any.
//
// The scan window is widened by a week on both sides because the bucket
// holding a date can close up to six days after it (and, for weekend
// entries under a non-wrapping config, before it). The directory name on
// disk is trusted over whatever bucket the current config would compute,
// so entries filed under a since-changed work-week rule are still found.
func FindEntryFile(ctx context.Context, s *Scanner, e *Extractor, date time.Time, cfg workweek.Config) (journal.File, bool, error) {
	date = workweek.Truncate(date)
	dirs, err := s.ScanRange(ctx, date.AddDate(0, 0, -6), date.AddDate(0, 0, 6))
	if err != nil {
		return journal.File{}, false, err
	}
	files, _, err := e.Extract(ctx, dirs, date, date, cfg)
	if err != nil {
		return journal.File{}, false, err
	}
	if len(files) == 0 {
		return journal.File{}, false, nil
	}
	if len(files) > 1 {
		s.logger.Printf("WARNING: %d files found for %s, using %s",
			len(files), date.Format(journal.DateLayout), files[0].Path)
	}
	return files[0], true, nil
}
