// Package workweek implements the work-week bucket arithmetic for worklog.
//
// A work week ("bucket") is a run of consecutive calendar days identified by
// its week-ending date, the canonical closing day embedded in bucket
// directory names. The configuration decides which weekdays belong to a
// bucket; wrapping configurations (start day after end day, e.g.
// Sunday-Thursday) span the weekly boundary.
//
// All functions here are pure. Invalid configurations are rejected at
// configuration-set time, not here: every date/config pair resolves to
// exactly one week-ending date.
package workweek

import (
	"fmt"
	"time"
)

// Preset names a well-known work-week shape.
type Preset string

const (
	// PresetMondayFriday is the default western work week (Mon..Fri).
	PresetMondayFriday Preset = "monday_friday"
	// PresetSundayThursday is the Sun..Thu work week, wrapping the
	// weekly boundary (start day 7, end day 4).
	PresetSundayThursday Preset = "sunday_thursday"
	// PresetCustom uses the configured StartDay/EndDay as-is.
	PresetCustom Preset = "custom"
)

// Weekday numbering used throughout worklog: 1=Monday .. 7=Sunday.
const (
	Monday = 1 + iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Config describes which weekdays form a bucket.
//
// For the non-custom presets StartDay/EndDay are fixed and user-supplied
// values are ignored; Normalized() applies the preset pairs.
type Config struct {
	Preset   Preset `mapstructure:"preset"`
	StartDay int    `mapstructure:"start_day"`
	EndDay   int    `mapstructure:"end_day"`
}

// Default returns the Monday-Friday configuration.
func Default() Config {
	return Config{Preset: PresetMondayFriday, StartDay: Monday, EndDay: Friday}
}

// Normalized returns the config with preset day pairs applied.
func (c Config) Normalized() Config {
	switch c.Preset {
	case PresetMondayFriday:
		c.StartDay, c.EndDay = Monday, Friday
	case PresetSundayThursday:
		c.StartDay, c.EndDay = Sunday, Thursday
	}
	return c
}

// Validate reports whether the config is usable. It is called when a
// configuration change is requested, before any sync or write uses it.
func (c Config) Validate() error {
	switch c.Preset {
	case PresetMondayFriday, PresetSundayThursday:
		return nil
	case PresetCustom:
		if c.StartDay < Monday || c.StartDay > Sunday {
			return fmt.Errorf("start_day must be 1..7 (got %d)", c.StartDay)
		}
		if c.EndDay < Monday || c.EndDay > Sunday {
			return fmt.Errorf("end_day must be 1..7 (got %d)", c.EndDay)
		}
		if c.StartDay == c.EndDay {
			return fmt.Errorf("custom work week requires start_day != end_day (got %d)", c.StartDay)
		}
		return nil
	default:
		return fmt.Errorf("unknown work week preset %q", c.Preset)
	}
}

// wraps reports whether the work week spans the weekly boundary.
func (c Config) wraps() bool {
	c = c.Normalized()
	return c.StartDay > c.EndDay
}

// ISOWeekday returns the weekday of t in worklog numbering (1=Mon..7=Sun).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return wd
}

// Truncate strips the time-of-day component, keeping the calendar date.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SpanDays returns the number of calendar days in one bucket.
func SpanDays(cfg Config) int {
	cfg = cfg.Normalized()
	return (cfg.EndDay-cfg.StartDay+7)%7 + 1
}

// WorkDays returns the weekdays belonging to a bucket, ascending from the
// start day and wrapping at 7 if the configuration spans the boundary.
func WorkDays(cfg Config) []int {
	cfg = cfg.Normalized()
	days := make([]int, 0, SpanDays(cfg))
	d := cfg.StartDay
	for {
		days = append(days, d)
		if d == cfg.EndDay {
			return days
		}
		d++
		if d > Sunday {
			d = Monday
		}
	}
}

// IsWorkDay reports whether date falls on one of the configured work days.
func IsWorkDay(date time.Time, cfg Config) bool {
	cfg = cfg.Normalized()
	wd := ISOWeekday(date)
	if cfg.wraps() {
		return wd >= cfg.StartDay || wd <= cfg.EndDay
	}
	return wd >= cfg.StartDay && wd <= cfg.EndDay
}

// BucketFor resolves the week-ending date of the bucket containing date.
//
// Work days resolve to the next occurrence of the end day at or after the
// date. Off days follow the weekend assignment rule: for non-wrapping
// configurations they attach to the bucket that just closed (a Saturday
// under Monday-Friday lands in the bucket ending the preceding Friday);
// for wrapping configurations the gap days attach to the upcoming bucket
// (a Friday under Sunday-Thursday lands in the bucket ending the following
// Thursday). The same rule drives both the write path and discovery, so an
// edited weekend entry always lands in one well-defined directory.
func BucketFor(date time.Time, cfg Config) time.Time {
	cfg = cfg.Normalized()
	date = Truncate(date)
	wd := ISOWeekday(date)

	if cfg.wraps() || IsWorkDay(date, cfg) {
		// Next occurrence of the end day, counting today.
		delta := (cfg.EndDay - wd + 7) % 7
		return date.AddDate(0, 0, delta)
	}

	// Off day in a non-wrapping week: previous occurrence of the end day.
	delta := (wd - cfg.EndDay + 7) % 7
	return date.AddDate(0, 0, -delta)
}

// BucketStart returns the first calendar day of the bucket ending on
// weekEnding. Buckets are runs of consecutive days, so the start is always
// SpanDays-1 days before the week-ending date.
func BucketStart(weekEnding time.Time, cfg Config) time.Time {
	return Truncate(weekEnding).AddDate(0, 0, -(SpanDays(cfg) - 1))
}

// BucketDates returns every calendar date of the bucket ending on
// weekEnding, ascending. These are the dates an entry file is expected for.
func BucketDates(weekEnding time.Time, cfg Config) []time.Time {
	n := SpanDays(cfg)
	dates := make([]time.Time, 0, n)
	d := BucketStart(weekEnding, cfg)
	for i := 0; i < n; i++ {
		dates = append(dates, d)
		d = d.AddDate(0, 0, 1)
	}
	return dates
}
