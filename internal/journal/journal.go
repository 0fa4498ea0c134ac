// Package journal defines the on-disk naming conventions and shared types
// for the worklog file tree.
//
// The layout is fixed and must not drift, since directory and file names are
// the authoritative encoding of bucket and entry dates:
//
//	<base>/worklogs_<YYYY>/worklogs_<YYYY>-<MM>/week_ending_<YYYY>-<MM>-<DD>/worklog_<YYYY>-<MM>-<DD>.txt
//
// The year and month containers carry the year/month of the bucket's
// week-ending date, not of the individual entry: a bucket closing on
// January 2nd holds its late-December entries under the January containers.
package journal

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date format embedded in directory and file names.
const DateLayout = "2006-01-02"

const (
	yearPrefix   = "worklogs_"
	monthPrefix  = "worklogs_"
	bucketPrefix = "week_ending_"
	filePrefix   = "worklog_"
	fileExt      = ".txt"
)

// BucketDir is a discovered bucket directory. The week-ending date is
// parsed from the directory name itself, never derived from a query range.
type BucketDir struct {
	Path       string
	WeekEnding time.Time
}

// File is a discovered entry file with its date parsed from the file name.
type File struct {
	Path string
	Date time.Time
}

// YearDirName returns the year container name for a week-ending date.
func YearDirName(weekEnding time.Time) string {
	return yearPrefix + weekEnding.Format("2006")
}

// MonthDirName returns the month container name for a week-ending date.
func MonthDirName(weekEnding time.Time) string {
	return monthPrefix + weekEnding.Format("2006-01")
}

// BucketDirName returns the bucket directory name for a week-ending date.
func BucketDirName(weekEnding time.Time) string {
	return bucketPrefix + weekEnding.Format(DateLayout)
}

// FileName returns the entry file name for a calendar date.
func FileName(date time.Time) string {
	return filePrefix + date.Format(DateLayout) + fileExt
}

// ParseYearDirName extracts the year from a year container name.
func ParseYearDirName(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, yearPrefix)
	if !ok || len(rest) != 4 {
		return 0, fmt.Errorf("not a year directory: %q", name)
	}
	t, err := time.Parse("2006", rest)
	if err != nil {
		return 0, fmt.Errorf("not a year directory: %q", name)
	}
	return t.Year(), nil
}

// ParseMonthDirName extracts year and month from a month container name.
func ParseMonthDirName(name string) (int, time.Month, error) {
	rest, ok := strings.CutPrefix(name, monthPrefix)
	if !ok || len(rest) != 7 {
		return 0, 0, fmt.Errorf("not a month directory: %q", name)
	}
	t, err := time.Parse("2006-01", rest)
	if err != nil {
		return 0, 0, fmt.Errorf("not a month directory: %q", name)
	}
	return t.Year(), t.Month(), nil
}

// ParseBucketDirName extracts the week-ending date from a bucket directory
// name. Malformed names (including calendar-invalid dates) are an error so
// callers can skip the directory.
func ParseBucketDirName(name string) (time.Time, error) {
	rest, ok := strings.CutPrefix(name, bucketPrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("not a bucket directory: %q", name)
	}
	return parseStrictDate(rest, name)
}

// ParseFileName extracts the entry date from an entry file name.
func ParseFileName(name string) (time.Time, error) {
	rest, ok := strings.CutPrefix(name, filePrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("not an entry file: %q", name)
	}
	rest, ok = strings.CutSuffix(rest, fileExt)
	if !ok {
		return time.Time{}, fmt.Errorf("not an entry file: %q", name)
	}
	return parseStrictDate(rest, name)
}

// parseStrictDate parses YYYY-MM-DD and rejects anything time.Parse would
// silently normalize (e.g. out-of-range days rolling into the next month).
func parseStrictDate(s, name string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date in %q: %w", name, err)
	}
	if t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("malformed date in %q", name)
	}
	return t, nil
}
