package daemon

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/scan"
	"github.com/akeller/worklog/internal/sync"
	"github.com/akeller/worklog/internal/workweek"
)

func testDaemon(t *testing.T) (*Daemon, string, *index.DB) {
	t.Helper()
	base := t.TempDir()
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("index.Open() failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	if err := idx.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	quiet := log.New(io.Discard, "", 0)
	scanner := scan.NewScanner(base, quiet)
	svc := sync.NewService(idx, scanner, scan.NewExtractor(quiet),
		workweek.Default, sync.Config{Logger: quiet})

	cfg := DefaultConfig()
	cfg.Logger = quiet
	cfg.DebounceInterval = 10 * time.Millisecond

	d, err := New(svc, scanner, cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return d, base, idx
}

func writeEntry(t *testing.T, base string, d time.Time) string {
	t.Helper()
	we := workweek.BucketFor(d, workweek.Default())
	path := journal.EntryPath(base, d, we)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("entry"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func recentWorkday() time.Time {
	d := workweek.Truncate(time.Now().UTC()).AddDate(0, 0, -3)
	for !workweek.IsWorkDay(d, workweek.Default()) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func TestNew_RequiresServiceAndScanner(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("New(nil, nil, nil) succeeded")
	}
}

func TestRefreshWatchSet_WatchesRecentBuckets(t *testing.T) {
	d, base, _ := testDaemon(t)
	path := writeEntry(t, base, recentWorkday())
	bucket := filepath.Dir(path)

	if err := d.refreshWatchSet(); err != nil {
		t.Fatalf("refreshWatchSet() failed: %v", err)
	}

	watched := map[string]bool{}
	for _, w := range d.watcher.WatchList() {
		watched[w] = true
	}
	if !watched[base] {
		t.Error("tree root not watched")
	}
	if !watched[bucket] {
		t.Errorf("recent bucket %s not watched", bucket)
	}
}

func TestProcessPendingChanges_SyncsDebouncedEntry(t *testing.T) {
	d, base, idx := testDaemon(t)
	date := recentWorkday()
	path := writeEntry(t, base, date)

	d.changeQueueMu.Lock()
	d.changeQueue[path] = time.Now().Add(-time.Second) // debounce elapsed
	d.changeQueueMu.Unlock()

	d.processPendingChanges()

	if _, err := idx.GetEntry(context.Background(), date); err != nil {
		t.Errorf("entry not indexed after change processing: %v", err)
	}
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	if len(d.changeQueue) != 0 {
		t.Errorf("change queue not drained: %v", d.changeQueue)
	}
}

func TestProcessPendingChanges_RespectsDebounceWindow(t *testing.T) {
	d, base, idx := testDaemon(t)
	date := recentWorkday()
	path := writeEntry(t, base, date)

	d.changeQueueMu.Lock()
	d.changeQueue[path] = time.Now() // still inside the window
	d.changeQueueMu.Unlock()

	d.processPendingChanges()

	if _, err := idx.GetEntry(context.Background(), date); err == nil {
		t.Error("entry synced before debounce window elapsed")
	}
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	if len(d.changeQueue) != 1 {
		t.Error("fresh change dropped from queue")
	}
}

func TestProcessPendingChanges_KeepsEntryWhenSyncBusy(t *testing.T) {
	base := t.TempDir()
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("index.Open() failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	if err := idx.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	// A workweek func that blocks on first use holds the single-flight
	// guard mid-sync.
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var blocked atomic.Bool
	wwFn := func() workweek.Config {
		if blocked.CompareAndSwap(false, true) {
			entered <- struct{}{}
			<-release
		}
		return workweek.Default()
	}

	quiet := log.New(io.Discard, "", 0)
	scanner := scan.NewScanner(base, quiet)
	svc := sync.NewService(idx, scanner, scan.NewExtractor(quiet),
		wwFn, sync.Config{Logger: quiet})

	cfg := DefaultConfig()
	cfg.Logger = quiet
	d, err := New(svc, scanner, cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { d.Stop() })

	path := writeEntry(t, base, recentWorkday())
	d.changeQueueMu.Lock()
	d.changeQueue[path] = time.Now().Add(-time.Second)
	d.changeQueueMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Incremental(context.Background(), 30)
	}()
	<-entered // guard is now held

	d.processPendingChanges()
	close(release)
	<-done

	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	if len(d.changeQueue) != 1 {
		t.Error("busy sync dropped the queued change instead of retrying")
	}
}
