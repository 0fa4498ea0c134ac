// Package config loads and persists worklog configuration.
//
// Configuration lives in a YAML file (default ~/.worklog/config.yaml) and
// can be overridden per key through WORKLOG_* environment variables. A
// missing file is not an error; defaults apply. The only mutation worklog
// performs itself is the work-week configuration, which is validated
// before it is written.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/akeller/worklog/internal/workweek"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// WORKLOG_SYNC_FULL_WINDOW_DAYS.
const EnvPrefix = "WORKLOG"

// Config is the full worklog configuration tree.
type Config struct {
	// BasePath is the root of the worklog file tree.
	BasePath string `mapstructure:"base_path"`
	// IndexPath is the SQLite index database file.
	IndexPath string          `mapstructure:"index_path"`
	WorkWeek  workweek.Config `mapstructure:"work_week"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Log       LogConfig       `mapstructure:"log"`
}

// SyncConfig tunes the sync service and the daemon's schedule.
type SyncConfig struct {
	IncrementalInterval   time.Duration `mapstructure:"incremental_interval"`
	FullInterval          time.Duration `mapstructure:"full_interval"`
	IncrementalWindowDays int           `mapstructure:"incremental_window_days"`
	FullWindowDays        int           `mapstructure:"full_window_days"`
	BatchSize             int           `mapstructure:"batch_size"`
}

// LogConfig controls the daemon's rotating log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultPath returns the default config file location,
// ~/.worklog/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".worklog", "config.yaml")
	}
	return filepath.Join(home, ".worklog", "config.yaml")
}

// Load reads configuration from file, layering defaults under the file's
// values and WORKLOG_* environment variables over them. A nonexistent file
// yields pure defaults.
func Load(file string) (*Config, error) {
	v := newViper(file)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", file, err)
	}

	cfg.WorkWeek = cfg.WorkWeek.Normalized()
	if err := cfg.WorkWeek.Validate(); err != nil {
		return nil, fmt.Errorf("invalid work week in %s: %w", file, err)
	}
	return &cfg, nil
}

// SetWorkWeek validates ww and persists it to file, creating the file with
// current defaults if it does not exist yet. Running daemons pick the new
// value up on their next config reload.
func SetWorkWeek(file string, ww workweek.Config) error {
	ww = ww.Normalized()
	if err := ww.Validate(); err != nil {
		return err
	}

	v := newViper(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	v.Set("work_week.preset", string(ww.Preset))
	v.Set("work_week.start_day", ww.StartDay)
	v.Set("work_week.end_day", ww.EndDay)

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config %s: %w", file, err)
	}
	return nil
}

func newViper(file string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	v.SetDefault("base_path", filepath.Join(home, "worklogs"))
	v.SetDefault("index_path", filepath.Join(home, ".worklog", "index.db"))

	def := workweek.Default()
	v.SetDefault("work_week.preset", string(def.Preset))
	v.SetDefault("work_week.start_day", def.StartDay)
	v.SetDefault("work_week.end_day", def.EndDay)

	v.SetDefault("sync.incremental_interval", "15m")
	v.SetDefault("sync.full_interval", "24h")
	v.SetDefault("sync.incremental_window_days", 14)
	v.SetDefault("sync.full_window_days", 730)
	v.SetDefault("sync.batch_size", 50)

	v.SetDefault("log.file", filepath.Join(home, ".worklog", "daemon.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)

	return v
}
