package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/config"
	"github.com/akeller/worklog/internal/entry"
	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/scan"
	"github.com/akeller/worklog/internal/sync"
	"github.com/akeller/worklog/internal/workweek"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "wl",
	Short: "Work-week-aware journal with a fast query index",
	Long: `wl keeps a journal of dated worklog entries organized into work-week
directories on disk, backed by a SQLite index for fast queries.

The file tree is the source of truth. The index is a rebuildable cache
kept current by explicit syncs or the background daemon.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log sync and scan activity")
}

// app bundles the wired-up services behind one Close.
type app struct {
	cfg     *config.Config
	idx     *index.DB
	scanner *scan.Scanner
	svc     *sync.Service
	entries *entry.Manager
	logger  *log.Logger
}

// newApp loads configuration and wires the full service stack.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := log.New(io.Discard, "[wl] ", log.LstdFlags)
	if verbose {
		logger = log.New(os.Stderr, "[wl] ", log.LstdFlags)
	}

	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	if err := idx.InitSchema(ctx); err != nil {
		idx.Close()
		return nil, err
	}

	workweekFn := func() workweek.Config { return cfg.WorkWeek }
	scanner := scan.NewScanner(cfg.BasePath, logger)
	extractor := scan.NewExtractor(logger)
	svc := sync.NewService(idx, scanner, extractor, workweekFn, sync.Config{
		BatchSize: cfg.Sync.BatchSize,
		Logger:    logger,
	})

	entries := entry.NewManager(entry.Config{
		Scanner:   scanner,
		Extractor: extractor,
		Index:     idx,
		WorkWeek:  workweekFn,
		Logger:    logger,
		AfterSave: func(ctx context.Context, d time.Time) error {
			_, err := svc.SyncDate(ctx, d)
			return err
		},
	})

	return &app{
		cfg:     cfg,
		idx:     idx,
		scanner: scanner,
		svc:     svc,
		entries: entries,
		logger:  logger,
	}, nil
}

func (a *app) Close() {
	if err := a.idx.Close(); err != nil {
		a.logger.Printf("WARNING: failed to close index: %v", err)
	}
}
