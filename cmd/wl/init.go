package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/config"
	"github.com/akeller/worklog/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the worklog tree, config file and index",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating worklog tree: %v\n", err)
			os.Exit(1)
		}

		// Write the config file with current (default or loaded) work week
		// so later edits have a file to start from.
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			if err := config.SetWorkWeek(cfgFile, cfg.WorkWeek); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
				os.Exit(1)
			}
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing index: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		fmt.Printf("%s Initialized worklog\n", ui.RenderPass("✓"))
		fmt.Printf("   Tree: %s\n", cfg.BasePath)
		fmt.Printf("   Config: %s\n", cfgFile)
		fmt.Printf("   Index: %s\n", cfg.IndexPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
