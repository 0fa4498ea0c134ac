package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akeller/worklog/internal/config"
	"github.com/akeller/worklog/internal/ui"
	"github.com/akeller/worklog/internal/workweek"
)

var (
	wwPreset   string
	wwStartDay int
	wwEndDay   int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change wl configuration",
}

var workweekCmd = &cobra.Command{
	Use:   "workweek",
	Short: "Work-week configuration",
	Long: `Get or set the work-week configuration that decides which bucket a
new entry lands in.

Presets:
  monday_friday    Mon..Fri, week ends Friday (default)
  sunday_thursday  Sun..Thu, week ends Thursday
  custom           any start/end day pair (1=Monday .. 7=Sunday)

Changing the configuration never moves existing files; discovery reads
bucket dates from directory names, so old entries stay findable.`,
}

var workweekGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the active work-week configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ww := cfg.WorkWeek
		fmt.Printf("Preset: %s\n", ww.Preset)
		fmt.Printf("Work days: %s through %s (days %d..%d)\n",
			dayName(ww.StartDay), dayName(ww.EndDay), ww.StartDay, ww.EndDay)
		fmt.Printf("Span: %d days\n", workweek.SpanDays(ww))
	},
}

var workweekSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the work-week configuration",
	Long: `Change and persist the work-week configuration.

  wl config workweek set --preset sunday_thursday
  wl config workweek set --preset custom --start-day 2 --end-day 6`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ww := workweek.Config{
			Preset:   workweek.Preset(wwPreset),
			StartDay: wwStartDay,
			EndDay:   wwEndDay,
		}
		if err := config.SetWorkWeek(cfgFile, ww); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ww = ww.Normalized()
		fmt.Printf("%s Work week set to %s (%s through %s)\n",
			ui.RenderPass("✓"), ww.Preset, dayName(ww.StartDay), dayName(ww.EndDay))
		fmt.Printf("   New entries bucket accordingly; existing files stay where they are\n")
	},
}

func dayName(day int) string {
	names := [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if day < workweek.Monday || day > workweek.Sunday {
		return fmt.Sprintf("day %d", day)
	}
	return names[day-1]
}

func init() {
	workweekSetCmd.Flags().StringVar(&wwPreset, "preset", string(workweek.PresetMondayFriday), "monday_friday, sunday_thursday or custom")
	workweekSetCmd.Flags().IntVar(&wwStartDay, "start-day", 0, "first work day, 1=Monday .. 7=Sunday (custom preset)")
	workweekSetCmd.Flags().IntVar(&wwEndDay, "end-day", 0, "last work day, 1=Monday .. 7=Sunday (custom preset)")

	workweekCmd.AddCommand(workweekGetCmd)
	workweekCmd.AddCommand(workweekSetCmd)
	configCmd.AddCommand(workweekCmd)
	rootCmd.AddCommand(configCmd)
}
