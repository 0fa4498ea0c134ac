package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/index"
	"github.com/akeller/worklog/internal/journal"
	"github.com/akeller/worklog/internal/ui"
)

var (
	listLimit    int
	listFrom     string
	listTo       string
	listNonEmpty bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed entries",
	Long: `List entries from the index, newest first by default.

With --from/--to, lists the date range in ascending order instead.
Run a sync first if recent file edits are missing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		var recs []*index.Record
		switch {
		case listFrom != "" || listTo != "":
			if listFrom == "" || listTo == "" {
				fmt.Fprintf(os.Stderr, "Error: --from and --to must be given together\n")
				os.Exit(1)
			}
			start, err := parseDateArg(listFrom)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			end, err := parseDateArg(listTo)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			recs, err = app.idx.ListRange(cmd.Context(), start, end,
				index.RangeFilter{NonEmptyOnly: listNonEmpty, Limit: listLimit})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error listing entries: %v\n", err)
				os.Exit(1)
			}
		default:
			recs, err = app.idx.ListRecent(cmd.Context(), listLimit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error listing entries: %v\n", err)
				os.Exit(1)
			}
		}

		if len(recs) == 0 {
			fmt.Printf("%s No indexed entries (try 'wl sync')\n", ui.RenderWarn("⚠"))
			return
		}

		for _, rec := range recs {
			marker := ui.RenderPass("●")
			detail := fmt.Sprintf("%d words", rec.WordCount)
			if !rec.HasContent {
				marker = ui.RenderDim("○")
				detail = "empty"
			}
			fmt.Printf("%s %s  %s %s\n",
				marker,
				rec.EntryDate.Format(journal.DateLayout),
				ui.RenderDim(fmt.Sprintf("week ending %s", rec.WeekEnding.Format(journal.DateLayout))),
				detail,
			)
		}
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "maximum entries to list")
	listCmd.Flags().StringVar(&listFrom, "from", "", "range start date")
	listCmd.Flags().StringVar(&listTo, "to", "", "range end date")
	listCmd.Flags().BoolVar(&listNonEmpty, "non-empty", false, "only entries with content")
	rootCmd.AddCommand(listCmd)
}
