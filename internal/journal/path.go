package journal

import (
	"path/filepath"
	"time"
)

// BucketDirPath returns the full directory path for the bucket ending on
// weekEnding, rooted at base.
func BucketDirPath(base string, weekEnding time.Time) string {
	return filepath.Join(base, YearDirName(weekEnding), MonthDirName(weekEnding), BucketDirName(weekEnding))
}

// EntryPath returns the full file path for an entry dated date that lives
// in the bucket ending on weekEnding.
func EntryPath(base string, date, weekEnding time.Time) string {
	return filepath.Join(BucketDirPath(base, weekEnding), FileName(date))
}
