package scan

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/workweek"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// writeEntry creates a valid entry file in the canonical layout.
func writeEntry(t *testing.T, base string, entryDate, weekEnding time.Time, content string) string {
	t.Helper()
	path := journal.EntryPath(base, entryDate, weekEnding)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

// makeBucket creates an empty bucket directory in the canonical layout.
func makeBucket(t *testing.T, base string, weekEnding time.Time) string {
	t.Helper()
	path := journal.BucketDirPath(base, weekEnding)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	return path
}

func TestScanRange_DirectoryFirstAcrossYearBoundary(t *testing.T) {
	// Regression guard: buckets 2024-07-05, 2024-12-20 and 2025-06-06 all
	// exist and a request for 2024-07-01..2025-06-06 must discover all
	// three, not only the bucket matching the range's end date.
	base := t.TempDir()
	buckets := []time.Time{
		date(2024, time.July, 5),
		date(2024, time.December, 20),
		date(2025, time.June, 6),
	}
	for _, we := range buckets {
		makeBucket(t, base, we)
	}

	s := NewScanner(base, quietLogger())
	dirs, err := s.ScanRange(context.Background(), date(2024, time.July, 1), date(2025, time.June, 6))
	if err != nil {
		t.Fatalf("ScanRange() failed: %v", err)
	}

	if len(dirs) != 3 {
		t.Fatalf("ScanRange() found %d buckets, want 3", len(dirs))
	}
	for i, we := range buckets {
		if !dirs[i].WeekEnding.Equal(we) {
			t.Errorf("dirs[%d].WeekEnding = %s, want %s",
				i, dirs[i].WeekEnding.Format(journal.DateLayout), we.Format(journal.DateLayout))
		}
	}
}

func TestScanRange_FiltersByParsedDate(t *testing.T) {
	base := t.TempDir()
	makeBucket(t, base, date(2025, time.May, 30))
	makeBucket(t, base, date(2025, time.June, 6))
	makeBucket(t, base, date(2025, time.June, 13))

	s := NewScanner(base, quietLogger())
	dirs, err := s.ScanRange(context.Background(), date(2025, time.June, 1), date(2025, time.June, 10))
	if err != nil {
		t.Fatalf("ScanRange() failed: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("ScanRange() found %d buckets, want 1", len(dirs))
	}
	if !dirs[0].WeekEnding.Equal(date(2025, time.June, 6)) {
		t.Errorf("WeekEnding = %s, want 2025-06-06", dirs[0].WeekEnding.Format(journal.DateLayout))
	}
}

func TestScanRange_SkipsMalformedDirectories(t *testing.T) {
	base := t.TempDir()
	makeBucket(t, base, date(2025, time.June, 6))

	monthDir := filepath.Join(base, "worklogs_2025", "worklogs_2025-06")
	for _, bad := range []string{"week_ending_2025-06-99", "week_ending_junk", "notes"} {
		if err := os.MkdirAll(filepath.Join(monthDir, bad), 0755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
	}

	var logBuf strings.Builder
	s := NewScanner(base, log.New(&logBuf, "", 0))
	dirs, err := s.ScanRange(context.Background(), date(2025, time.June, 1), date(2025, time.June, 30))
	if err != nil {
		t.Fatalf("ScanRange() failed: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("ScanRange() found %d buckets, want 1 (malformed names must be skipped)", len(dirs))
	}
	if !strings.Contains(logBuf.String(), "week_ending_2025-06-99") {
		t.Error("malformed directory was not logged")
	}
}

func TestScanRange_MissingBaseIsEmpty(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "never-created"), quietLogger())
	dirs, err := s.ScanRange(context.Background(), date(2025, time.June, 1), date(2025, time.June, 30))
	if err != nil {
		t.Fatalf("ScanRange() failed on missing base: %v", err)
	}
	if len(dirs) != 0 {
		t.Errorf("ScanRange() = %d buckets, want 0", len(dirs))
	}
}

func TestScanRange_DuplicateBucketDatesKept(t *testing.T) {
	// The same week-ending date filed under two month containers (possible
	// after manual moves). Both are retained with a warning.
	base := t.TempDir()
	we := date(2025, time.June, 2) // Monday; month container normally 2025-06
	makeBucket(t, base, we)
	other := filepath.Join(base, "worklogs_2025", "worklogs_2025-05", journal.BucketDirName(we))
	if err := os.MkdirAll(other, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	var logBuf strings.Builder
	s := NewScanner(base, log.New(&logBuf, "", 0))
	dirs, err := s.ScanRange(context.Background(), date(2025, time.May, 1), date(2025, time.June, 30))
	if err != nil {
		t.Fatalf("ScanRange() failed: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("ScanRange() found %d buckets, want both duplicates", len(dirs))
	}
	if !strings.Contains(logBuf.String(), "duplicate bucket date") {
		t.Error("duplicate bucket dates were not warned about")
	}
}

func TestScanRange_InvalidRange(t *testing.T) {
	s := NewScanner(t.TempDir(), quietLogger())
	if _, err := s.ScanRange(context.Background(), date(2025, time.June, 10), date(2025, time.June, 1)); err == nil {
		t.Error("ScanRange() accepted end before start")
	}
}

func TestExtract_RefiltersAtFileGranularity(t *testing.T) {
	// Bucket ending 2025-01-02 spans the year boundary: it holds files for
	// 2024-12-30..2025-01-02. A request ending 2024-12-31 must keep only
	// the December files even though the bucket itself is in range of the
	// widened scan.
	base := t.TempDir()
	we := date(2025, time.January, 2)
	writeEntry(t, base, date(2024, time.December, 30), we, "mon")
	writeEntry(t, base, date(2024, time.December, 31), we, "tue")
	writeEntry(t, base, date(2025, time.January, 1), we, "wed")

	dirs := []journal.BucketDir{{Path: journal.BucketDirPath(base, we), WeekEnding: we}}
	e := NewExtractor(quietLogger())
	found, _, err := e.Extract(context.Background(), dirs, date(2024, time.December, 1), date(2024, time.December, 31), workweek.Default())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Extract() found %d files, want 2", len(found))
	}
	for _, f := range found {
		if f.Date.Year() != 2024 {
			t.Errorf("Extract() kept out-of-range file %s", f.Path)
		}
	}
}

func TestExtract_MissingExpectedDates(t *testing.T) {
	// Bucket ending Friday 2025-06-06 has files for Mon/Tue/Fri only;
	// Wed and Thu are expected work days with no file.
	base := t.TempDir()
	we := date(2025, time.June, 6)
	writeEntry(t, base, date(2025, time.June, 2), we, "mon")
	writeEntry(t, base, date(2025, time.June, 3), we, "tue")
	writeEntry(t, base, date(2025, time.June, 6), we, "fri")

	dirs := []journal.BucketDir{{Path: journal.BucketDirPath(base, we), WeekEnding: we}}
	e := NewExtractor(quietLogger())
	found, missing, err := e.Extract(context.Background(), dirs, date(2025, time.June, 1), date(2025, time.June, 30), workweek.Default())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("Extract() found %d files, want 3", len(found))
	}
	want := []time.Time{date(2025, time.June, 4), date(2025, time.June, 5)}
	if len(missing) != len(want) {
		t.Fatalf("missing = %d dates, want %d", len(missing), len(want))
	}
	for i := range want {
		if !missing[i].Equal(want[i]) {
			t.Errorf("missing[%d] = %s, want %s",
				i, missing[i].Format(journal.DateLayout), want[i].Format(journal.DateLayout))
		}
	}
}

func TestExtract_IgnoresUnrelatedFiles(t *testing.T) {
	base := t.TempDir()
	we := date(2025, time.June, 6)
	writeEntry(t, base, date(2025, time.June, 2), we, "mon")
	dir := journal.BucketDirPath(base, we)
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "worklog_2025-06-03.txt.bak"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	e := NewExtractor(quietLogger())
	found, _, err := e.Extract(context.Background(),
		[]journal.BucketDir{{Path: dir, WeekEnding: we}},
		date(2025, time.June, 1), date(2025, time.June, 30), workweek.Default())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Extract() found %d files, want 1", len(found))
	}
}

func TestExtract_UnreadableDirectoryContinues(t *testing.T) {
	base := t.TempDir()
	we := date(2025, time.June, 6)
	writeEntry(t, base, date(2025, time.June, 2), we, "mon")

	gone := journal.BucketDir{Path: filepath.Join(base, "does-not-exist"), WeekEnding: date(2025, time.May, 30)}
	valid := journal.BucketDir{Path: journal.BucketDirPath(base, we), WeekEnding: we}

	var logBuf strings.Builder
	e := NewExtractor(log.New(&logBuf, "", 0))
	found, _, err := e.Extract(context.Background(), []journal.BucketDir{gone, valid},
		date(2025, time.May, 1), date(2025, time.June, 30), workweek.Default())
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("Extract() found %d files, want 1", len(found))
	}
	if !strings.Contains(logBuf.String(), "cannot read bucket directory") {
		t.Error("unreadable directory was not logged")
	}
}
