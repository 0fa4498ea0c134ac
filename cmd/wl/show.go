package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Print the entry for a date (default today)",
	Long: `Print the worklog entry for a date.

The date may be YYYY-MM-DD or natural language ("yesterday", "last friday").
The entry is located by scanning the file tree, so entries filed under an
earlier work-week configuration are found too.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := dateOrToday(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		content, found, err := app.entries.GetContent(cmd.Context(), date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading entry: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("%s No entry for %s\n", ui.RenderWarn("⚠"), date.Format(journal.DateLayout))
			return
		}

		fmt.Printf("%s %s\n\n", ui.RenderAccent("📋"), date.Format(journal.DateLayout))
		fmt.Println(content)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
