package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/habitloop/internal/dateutil"
)

var statsDate string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion rate, streaks and the weekly progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsDate != "" && !dateutil.Valid(statsDate) {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", statsDate)
		}
		s, err := api.Summary(cmd.Context(), statsDate)
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		bold.Fprintf(out, "%s  %d%% complete", s.Date, s.CompletionRate)
		faint.Fprintf(out, "  (7-day average %d%%, %d habits)\n\n", s.AverageRate, s.TotalHabits)

		printProgress(out, s.Progress)

		if len(s.Habits) > 0 {
			fmt.Fprintln(out)
			for _, h := range s.Habits {
				mark := "○"
				if h.CompletedToday {
					mark = green.Sprint("●")
				}
				fmt.Fprintf(out, "%s %s streak %d  current %d  best %d  %s\n",
					mark,
					padRight(truncate(h.Name, 28), 28),
					h.Streak, h.CurrentStreak, h.BestStreak,
					faint.Sprintf("%d total", h.TotalCompletions))
			}
		}

		if len(s.CategoryBreakdown) > 0 {
			fmt.Fprintln(out)
			for _, c := range s.CategoryBreakdown {
				faint.Fprintf(out, "%s %d  ", c.Category, c.Count)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show unlocked and pending achievements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		achievements, err := api.Achievements(cmd.Context())
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		for _, a := range achievements {
			if a.Unlocked {
				color.New(color.FgGreen, color.Bold).Fprintf(out, "★ %s", a.Name)
			} else {
				faint.Fprintf(out, "☆ %s", a.Name)
			}
			faint.Fprintf(out, "  %s (%d/%d)\n", a.Description, min(a.Progress, a.Threshold), a.Threshold)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "date for the completion rate (YYYY-MM-DD)")
	rootCmd.AddCommand(statsCmd, achievementsCmd)
}
