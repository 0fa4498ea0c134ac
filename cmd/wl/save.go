package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/ui"
)

var saveCmd = &cobra.Command{
	Use:   "save <date> [text...]",
	Short: "Write the entry for a date",
	Long: `Write the worklog entry for a date, replacing any existing content.

Text may be given as arguments or piped on stdin with "-":

  wl save today "fixed the index upsert"
  git log --oneline -5 | wl save today -

If an entry file for the date already exists anywhere in the tree, it is
rewritten in place; the work-week configuration only decides where new
entries go. The index is synced right after the write.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := parseDateArg(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var content string
		switch {
		case len(args) == 2 && args[1] == "-":
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
				os.Exit(1)
			}
			content = string(data)
		case len(args) > 1:
			content = strings.Join(args[1:], " ")
		default:
			fmt.Fprintf(os.Stderr, "Error: no content given (pass text or \"-\" for stdin)\n")
			os.Exit(1)
		}

		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		path, err := app.entries.SaveContent(cmd.Context(), date, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving entry: %v\n", err)
			os.Exit(1)
		}

		metrics := journal.ComputeMetrics(content)
		fmt.Printf("%s Saved %s (%d words)\n", ui.RenderPass("✓"), date.Format(journal.DateLayout), metrics.WordCount)
		fmt.Printf("   %s\n", ui.RenderDim(path))
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
