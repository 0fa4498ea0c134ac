package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNames_RoundTrip(t *testing.T) {
	we := date(2025, time.January, 3)

	if got := YearDirName(we); got != "worklogs_2025" {
		t.Errorf("YearDirName() = %q, want worklogs_2025", got)
	}
	if got := MonthDirName(we); got != "worklogs_2025-01" {
		t.Errorf("MonthDirName() = %q, want worklogs_2025-01", got)
	}
	if got := BucketDirName(we); got != "week_ending_2025-01-03" {
		t.Errorf("BucketDirName() = %q, want week_ending_2025-01-03", got)
	}
	if got := FileName(we); got != "worklog_2025-01-03.txt" {
		t.Errorf("FileName() = %q, want worklog_2025-01-03.txt", got)
	}

	parsed, err := ParseBucketDirName(BucketDirName(we))
	if err != nil {
		t.Fatalf("ParseBucketDirName() failed: %v", err)
	}
	if !parsed.Equal(we) {
		t.Errorf("ParseBucketDirName() = %s, want %s", parsed.Format(DateLayout), we.Format(DateLayout))
	}

	parsed, err = ParseFileName(FileName(we))
	if err != nil {
		t.Fatalf("ParseFileName() failed: %v", err)
	}
	if !parsed.Equal(we) {
		t.Errorf("ParseFileName() = %s, want %s", parsed.Format(DateLayout), we.Format(DateLayout))
	}
}

func TestParseBucketDirName_Malformed(t *testing.T) {
	bad := []string{
		"week_ending_",
		"week_ending_2025-13-01",
		"week_ending_2025-02-30",
		"week_ending_not-a-date",
		"weekending_2025-01-03",
		"tmp",
	}
	for _, name := range bad {
		if _, err := ParseBucketDirName(name); err == nil {
			t.Errorf("ParseBucketDirName(%q) accepted malformed name", name)
		}
	}
}

func TestParseFileName_Malformed(t *testing.T) {
	bad := []string{
		"worklog_2025-01-03.md",
		"worklog_2025-1-3.txt",
		"notes.txt",
		"worklog_.txt",
	}
	for _, name := range bad {
		if _, err := ParseFileName(name); err == nil {
			t.Errorf("ParseFileName(%q) accepted malformed name", name)
		}
	}
}

func TestParseYearAndMonthDirNames(t *testing.T) {
	year, err := ParseYearDirName("worklogs_2024")
	if err != nil || year != 2024 {
		t.Errorf("ParseYearDirName() = %d, %v; want 2024, nil", year, err)
	}
	if _, err := ParseYearDirName("worklogs_24"); err == nil {
		t.Error("ParseYearDirName() accepted two-digit year")
	}

	y, m, err := ParseMonthDirName("worklogs_2024-07")
	if err != nil || y != 2024 || m != time.July {
		t.Errorf("ParseMonthDirName() = %d-%d, %v; want 2024-7, nil", y, m, err)
	}
	if _, _, err := ParseMonthDirName("worklogs_2024-7"); err == nil {
		t.Error("ParseMonthDirName() accepted unpadded month")
	}
}

func TestEntryPath_Layout(t *testing.T) {
	// A bucket closing Jan 2 files its late-December entry under the
	// January containers.
	we := date(2025, time.January, 2)
	entry := date(2024, time.December, 30)

	got := EntryPath("/data", entry, we)
	want := filepath.Join("/data", "worklogs_2025", "worklogs_2025-01", "week_ending_2025-01-02", "worklog_2024-12-30.txt")
	if got != want {
		t.Errorf("EntryPath() = %q, want %q", got, want)
	}
}

func TestComputeMetrics(t *testing.T) {
	tests := []struct {
		name    string
		content string
		words   int
		chars   int
		lines   int
		has     bool
	}{
		{"empty", "", 0, 0, 0, false},
		{"whitespace only", "  \n\t\n", 0, 5, 2, false},
		{"single line", "did the thing", 3, 13, 1, true},
		{"trailing newline", "one\ntwo\n", 2, 8, 2, true},
		{"unicode", "café", 1, 4, 1, true},
	}
	for _, tt := range tests {
		m := ComputeMetrics(tt.content)
		if m.WordCount != tt.words {
			t.Errorf("%s: WordCount = %d, want %d", tt.name, m.WordCount, tt.words)
		}
		if m.CharacterCount != tt.chars {
			t.Errorf("%s: CharacterCount = %d, want %d", tt.name, m.CharacterCount, tt.chars)
		}
		if m.LineCount != tt.lines {
			t.Errorf("%s: LineCount = %d, want %d", tt.name, m.LineCount, tt.lines)
		}
		if m.HasContent != tt.has {
			t.Errorf("%s: HasContent = %v, want %v", tt.name, m.HasContent, tt.has)
		}
	}
}
