package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/sync"
	"github.com/akeller/worklog/internal/ui"
)

var syncWindowDays int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Full sync of the index against the file tree",
	Long: `Reconcile the index with the file tree over the full window
(default two years), then remove index records whose files are gone.

Only one sync runs at a time; a concurrent request is rejected, not queued.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		window := syncWindowDays
		if window == 0 {
			window = app.cfg.Sync.FullWindowDays
		}

		fmt.Printf("%s Syncing %s (window %d days)...\n", ui.RenderAccent("🔄"), app.cfg.BasePath, window)
		start := time.Now()

		run, err := app.svc.Full(cmd.Context(), window)
		if err != nil {
			reportSyncError(err, run)
			os.Exit(1)
		}

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		printCounts(run)
	},
}

var syncIncrementalCmd = &cobra.Command{
	Use:   "incremental",
	Short: "Sync only the recent window, without orphan cleanup",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		window := syncWindowDays
		if window == 0 {
			window = app.cfg.Sync.IncrementalWindowDays
		}

		run, err := app.svc.Incremental(cmd.Context(), window)
		if err != nil {
			reportSyncError(err, run)
			os.Exit(1)
		}

		fmt.Printf("%s Incremental sync complete\n", ui.RenderPass("✓"))
		printCounts(run)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a sync is running and the last run's result",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		running, last, err := app.svc.Status(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading sync status: %v\n", err)
			os.Exit(1)
		}

		if running {
			fmt.Printf("%s Sync in progress\n", ui.RenderAccent("🔄"))
		} else {
			fmt.Printf("%s Idle\n", ui.RenderDim("●"))
		}

		if last == nil {
			fmt.Println("No syncs recorded yet")
			return
		}

		marker := ui.RenderPass("✓")
		if last.Status == index.RunStatusFailed {
			marker = ui.RenderFail("✗")
		} else if last.Status == index.RunStatusRunning {
			marker = ui.RenderAccent("🔄")
		}
		fmt.Printf("\n%s Last run: %s %s, started %s\n",
			marker, last.Type, last.Status, last.StartedAt.Local().Format("2006-01-02 15:04:05"))
		printCounts(last)
		if last.ErrorMessage != "" {
			fmt.Printf("   Error: %s\n", last.ErrorMessage)
		}
	},
}

func printCounts(run *index.Run) {
	if run == nil {
		return
	}
	fmt.Printf("   Processed: %d\n", run.Processed)
	fmt.Printf("   Added: %d, updated: %d, removed: %d\n", run.Added, run.Updated, run.Removed)
}

func reportSyncError(err error, run *index.Run) {
	if errors.Is(err, sync.ErrSyncRunning) {
		fmt.Fprintf(os.Stderr, "Error: a sync is already running (try 'wl sync status')\n")
		return
	}
	fmt.Fprintf(os.Stderr, "Error: sync failed: %v\n", err)
	printCounts(run)
}

func init() {
	syncCmd.PersistentFlags().IntVar(&syncWindowDays, "window", 0, "sync window in days (0 = configured default)")
	syncCmd.AddCommand(syncIncrementalCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
