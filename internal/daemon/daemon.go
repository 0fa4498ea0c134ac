// Package daemon runs the background synchronization schedule.
//
// The daemon:
// 1. Fires incremental syncs on a short interval and full syncs on a long one
// 2. Watches recent bucket directories for entry files written by other tools
// 3. Debounces file events into single-entry syncs
// 4. Handles graceful shutdown
//
// All sync work funnels through the single-flight sync service; a trigger
// that fires while a sync is already running is skipped, not queued.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/scan"
	"github.com/akeller/worklog/internal/sync"
	"github.com/akeller/worklog/internal/workweek"
)

// Config holds the daemon schedule.
type Config struct {
	// IncrementalInterval is how often the recent window is reconciled.
	IncrementalInterval time.Duration

	// FullInterval is how often a full sync with orphan cleanup runs.
	FullInterval time.Duration

	// IncrementalWindowDays and FullWindowDays bound the two sync scopes.
	IncrementalWindowDays int
	FullWindowDays        int

	// DebounceInterval is how long a file event sits in the change queue
	// before it triggers a single-entry sync. Batches rapid saves together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns the standard schedule.
func DefaultConfig() *Config {
	return &Config{
		IncrementalInterval:   15 * time.Minute,
		FullInterval:          24 * time.Hour,
		IncrementalWindowDays: sync.DefaultIncrementalWindowDays,
		FullWindowDays:        sync.DefaultFullWindowDays,
		DebounceInterval:      500 * time.Millisecond,
		Logger:                log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon schedules syncs and watches the recent file tree.
type Daemon struct {
	svc     *sync.Service
	scanner *scan.Scanner
	config  *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> queued-at
	changeQueueMu gosync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// New creates a daemon. Use Start() to begin the schedule.
func New(svc *sync.Service, scanner *scan.Scanner, config *Config) (*Daemon, error) {
	if svc == nil {
		return nil, fmt.Errorf("sync service cannot be nil")
	}
	if scanner == nil {
		return nil, fmt.Errorf("scanner cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		svc:         svc,
		scanner:     scanner,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start runs the daemon until ctx is cancelled.
//
// On startup it performs one full sync, then builds the watch set and
// starts the timers and the change-queue processor.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if _, err := d.svc.Full(ctx, d.config.FullWindowDays); err != nil {
		if errors.Is(err, sync.ErrSyncRunning) {
			d.config.Logger.Println("Initial full sync skipped: sync already running")
		} else {
			return fmt.Errorf("initial full sync failed: %w", err)
		}
	}

	if err := d.refreshWatchSet(); err != nil {
		d.config.Logger.Printf("Warning: failed to build watch set: %v", err)
	}

	d.wg.Add(4)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.runTicker("incremental", d.config.IncrementalInterval, func(ctx context.Context) error {
		_, err := d.svc.Incremental(ctx, d.config.IncrementalWindowDays)
		return err
	})
	go d.runTicker("full", d.config.FullInterval, func(ctx context.Context) error {
		_, err := d.svc.Full(ctx, d.config.FullWindowDays)
		return err
	})

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// runTicker fires op on every interval tick. An op rejected because a sync
// is already in flight is a no-op; the next tick tries again.
func (d *Daemon) runTicker(name string, interval time.Duration, op func(context.Context) error) {
	defer d.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			err := op(d.ctx)
			switch {
			case err == nil:
				if err := d.refreshWatchSet(); err != nil {
					d.config.Logger.Printf("Warning: failed to refresh watch set: %v", err)
				}
			case errors.Is(err, sync.ErrSyncRunning):
				d.config.Logger.Printf("Skipping %s sync: already running", name)
			case errors.Is(err, context.Canceled):
				return
			default:
				d.config.Logger.Printf("Error in %s sync: %v", name, err)
			}
		}
	}
}

// refreshWatchSet points the watcher at the bucket directories of the
// recent window, plus the tree root so newly created buckets are noticed
// on the next refresh. Stale watches are dropped.
func (d *Daemon) refreshWatchSet() error {
	// The current in-progress bucket closes up to six days in the future;
	// widen the scan so it is watched too.
	end := workweek.Truncate(time.Now()).AddDate(0, 0, 6)
	start := end.AddDate(0, 0, -d.config.IncrementalWindowDays-12)

	dirs, err := d.scanner.ScanRange(d.ctx, start, end)
	if err != nil {
		return err
	}

	want := map[string]bool{d.scanner.Base(): true}
	for _, dir := range dirs {
		want[dir.Path] = true
	}

	for _, watched := range d.watcher.WatchList() {
		if !want[watched] {
			d.watcher.Remove(watched)
		}
		delete(want, watched)
	}
	for path := range want {
		if err := d.watcher.Add(path); err != nil {
			d.config.Logger.Printf("Warning: failed to watch %s: %v", path, err)
		}
	}
	return nil
}

// watchFileEvents queues entry-file events for debounced processing.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Only entry files matter; directory events and foreign files
			// in the tree are ignored.
			if _, err := journal.ParseFileName(filepath.Base(event.Name)); err != nil {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a changed file, restarting its debounce clock.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue drains the change queue on the debounce cadence.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges runs a single-entry sync for each file whose
// debounce window has elapsed. A file whose sync loses the single-flight
// race stays queued for the next pass.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		date, err := journal.ParseFileName(filepath.Base(path))
		if err != nil {
			delete(d.changeQueue, path)
			continue
		}

		if _, err := d.svc.SyncDate(d.ctx, date); err != nil {
			if errors.Is(err, sync.ErrSyncRunning) {
				continue // retry next tick
			}
			d.config.Logger.Printf("Error syncing %s: %v", date.Format(journal.DateLayout), err)
		}
		delete(d.changeQueue, path)
	}
}
