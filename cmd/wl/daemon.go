package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/akeller/worklog/internal/daemon"
	"github.com/akeller/worklog/internal/ui"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon (foreground process)",
	Long: `Run the sync daemon until interrupted.

The daemon performs a full sync on startup, then keeps the index current:
incremental syncs on a short interval, full syncs on a long one, and
single-entry syncs for files changed by other tools (watched via the
recent bucket directories).

Logs go to the configured rotating log file; pass --foreground to log to
stderr instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		var logSink io.Writer = &lumberjack.Logger{
			Filename:   app.cfg.Log.File,
			MaxSize:    app.cfg.Log.MaxSizeMB,
			MaxBackups: app.cfg.Log.MaxBackups,
			MaxAge:     app.cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		if daemonForeground {
			logSink = os.Stderr
		}
		logger := log.New(logSink, "[daemon] ", log.LstdFlags)

		dcfg := daemon.DefaultConfig()
		dcfg.IncrementalInterval = app.cfg.Sync.IncrementalInterval
		dcfg.FullInterval = app.cfg.Sync.FullInterval
		dcfg.IncrementalWindowDays = app.cfg.Sync.IncrementalWindowDays
		dcfg.FullWindowDays = app.cfg.Sync.FullWindowDays
		dcfg.Logger = logger

		d, err := daemon.New(app.svc, app.scanner, dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Starting sync daemon...\n", ui.RenderAccent("🚀"))
		fmt.Printf("   Tree: %s\n", app.cfg.BasePath)
		fmt.Printf("   Index: %s\n", app.cfg.IndexPath)
		if !daemonForeground {
			fmt.Printf("   Log: %s\n", app.cfg.Log.File)
		}
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "log to stderr instead of the log file")
	rootCmd.AddCommand(daemonCmd)
}
