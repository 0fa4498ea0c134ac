package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akeller/worklog/internal/workweek"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.WorkWeek.Preset != workweek.PresetMondayFriday {
		t.Errorf("WorkWeek.Preset = %q, want monday_friday", cfg.WorkWeek.Preset)
	}
	if cfg.Sync.IncrementalInterval != 15*time.Minute {
		t.Errorf("IncrementalInterval = %v, want 15m", cfg.Sync.IncrementalInterval)
	}
	if cfg.Sync.FullInterval != 24*time.Hour {
		t.Errorf("FullInterval = %v, want 24h", cfg.Sync.FullInterval)
	}
	if cfg.Sync.IncrementalWindowDays != 14 || cfg.Sync.FullWindowDays != 730 {
		t.Errorf("windows = %d/%d, want 14/730",
			cfg.Sync.IncrementalWindowDays, cfg.Sync.FullWindowDays)
	}
	if cfg.BasePath == "" || cfg.IndexPath == "" {
		t.Errorf("paths not defaulted: base=%q index=%q", cfg.BasePath, cfg.IndexPath)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "base_path: /srv/worklogs\nsync:\n  incremental_interval: 5m\n  full_window_days: 365\n"
	if err := os.WriteFile(file, []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BasePath != "/srv/worklogs" {
		t.Errorf("BasePath = %q", cfg.BasePath)
	}
	if cfg.Sync.IncrementalInterval != 5*time.Minute {
		t.Errorf("IncrementalInterval = %v, want 5m", cfg.Sync.IncrementalInterval)
	}
	if cfg.Sync.FullWindowDays != 365 {
		t.Errorf("FullWindowDays = %d, want 365", cfg.Sync.FullWindowDays)
	}
	// Untouched keys keep defaults.
	if cfg.Sync.FullInterval != 24*time.Hour {
		t.Errorf("FullInterval = %v, want default 24h", cfg.Sync.FullInterval)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WORKLOG_BASE_PATH", "/mnt/journal")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BasePath != "/mnt/journal" {
		t.Errorf("BasePath = %q, want env override /mnt/journal", cfg.BasePath)
	}
}

func TestSetWorkWeek_PersistsAndReloads(t *testing.T) {
	file := filepath.Join(t.TempDir(), "wl", "config.yaml")

	ww := workweek.Config{Preset: workweek.PresetSundayThursday}
	if err := SetWorkWeek(file, ww); err != nil {
		t.Fatalf("SetWorkWeek() failed: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.WorkWeek.Preset != workweek.PresetSundayThursday {
		t.Errorf("Preset = %q, want sunday_thursday", cfg.WorkWeek.Preset)
	}
	if cfg.WorkWeek.StartDay != workweek.Sunday || cfg.WorkWeek.EndDay != workweek.Thursday {
		t.Errorf("days = %d/%d, want 7/4", cfg.WorkWeek.StartDay, cfg.WorkWeek.EndDay)
	}
}

func TestSetWorkWeek_RejectsInvalidCustom(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")

	ww := workweek.Config{Preset: workweek.PresetCustom,
		StartDay: workweek.Tuesday, EndDay: workweek.Tuesday}
	if err := SetWorkWeek(file, ww); err == nil {
		t.Fatal("SetWorkWeek() accepted custom config with start_day == end_day")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("rejected config was written to disk")
	}
}

func TestSetWorkWeek_PreservesOtherKeys(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(file, []byte("base_path: /srv/worklogs\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := SetWorkWeek(file, workweek.Config{Preset: workweek.PresetSundayThursday}); err != nil {
		t.Fatalf("SetWorkWeek() failed: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.BasePath != "/srv/worklogs" {
		t.Errorf("BasePath = %q, work-week write clobbered it", cfg.BasePath)
	}
}
