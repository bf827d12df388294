package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/habit"
	"github.com/dukerupert/habitloop/internal/model"
)

var (
	listCategory string
	listSearch   string
	listDate     string
	toggleDate   string

	habitDescription string
	habitCategory    string
	habitFrequency   string
	habitDays        string
	habitReminder    string
	habitIcon        string
	habitColor       string
	habitNotify      bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits and their state on a date",
	Long: `List habits with their state on --date (today by default).

  ● done   ○ due   · not scheduled

EXAMPLES:

  habitctl list
  habitctl list --category study
  habitctl list --search run --date 2025-04-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		date := listDate
		if date == "" {
			date = eng.Today()
		} else if !dateutil.Valid(date) {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
		}

		habits := habit.FilterByCategory(eng.Habits(), listCategory)
		habits = habit.Search(habits, listSearch)
		if len(habits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No habits found.")
			return nil
		}

		out := cmd.OutOrStdout()
		for _, h := range habits {
			printHabitLine(out, h, date)
		}
		rate, err := eng.CompletionRate(date)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s %s %d%%\n", faint.Sprint(date), progressBar(rate, 20), rate)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a habit",
	Long: `Create a habit. Without --category one is suggested from the name.

EXAMPLES:

  habitctl add "Morning run"
  habitctl add "Flashcards" --frequency custom --days mon,wed,fri --reminder 19:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}

		def := model.HabitDefinition{Name: args[0]}
		applyHabitFlags(cmd, &def)

		created, err := eng.AddHabit(cmd.Context(), def)
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Added %s", created.Name)
		printHabitLine(cmd.OutOrStdout(), created, eng.Today())
		return nil
	},
}

var editName string

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a habit's definition",
	Long: `Change only the fields given as flags. The ID may be a unique prefix.

EXAMPLES:

  habitctl edit 1a2b --name "Evening run"
  habitctl edit 1a2b --frequency weekly --days sat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		current, err := resolveHabit(eng.Habits(), args[0])
		if err != nil {
			return err
		}

		def := current.Definition()
		if cmd.Flags().Changed("name") {
			def.Name = editName
		}
		applyHabitFlags(cmd, &def)

		next := current
		next.Name = def.Name
		next.Description = def.Description
		next.Category = def.Category
		next.Icon = def.Icon
		next.Color = def.Color
		next.Frequency = def.Frequency
		next.DaysOfWeek = def.DaysOfWeek
		next.ReminderTime = def.ReminderTime
		next.NotificationsEnabled = def.NotificationsEnabled

		updated, err := eng.UpdateHabit(cmd.Context(), next)
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Updated %s", updated.Name)
		printHabitLine(cmd.OutOrStdout(), updated, eng.Today())
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a habit and its history",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		h, err := resolveHabit(eng.Habits(), args[0])
		if err != nil {
			return err
		}
		if err := eng.DeleteHabit(cmd.Context(), h.ID); err != nil {
			return explain(err)
		}
		color.Yellow("✗ Deleted %s", h.Name)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a habit done, or undo it",
	Long: `Flip completion for --date (today by default). Streaks only move when
the date is today.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadEngine(cmd.Context())
		if err != nil {
			return err
		}
		h, err := resolveHabit(eng.Habits(), args[0])
		if err != nil {
			return err
		}
		date := toggleDate
		if date == "" {
			date = eng.Today()
		}

		toggled, err := eng.ToggleCompletion(cmd.Context(), h.ID, date)
		if err != nil {
			return explain(err)
		}
		if habit.IsCompletedOn(toggled, date) {
			color.Green("✓ %s done on %s (streak %d)", toggled.Name, date, toggled.Streak)
		} else {
			color.Yellow("○ %s undone on %s (streak %d)", toggled.Name, date, toggled.Streak)
		}
		return nil
	},
}

// applyHabitFlags copies the definition flags the user set onto def.
func applyHabitFlags(cmd *cobra.Command, def *model.HabitDefinition) {
	f := cmd.Flags()
	if f.Changed("description") {
		def.Description = habitDescription
	}
	if f.Changed("category") {
		def.Category = model.Category(strings.ToLower(habitCategory))
	}
	if f.Changed("frequency") {
		def.Frequency = model.Frequency(strings.ToLower(habitFrequency))
	}
	if f.Changed("days") {
		def.DaysOfWeek = habit.SplitWeekdays(habitDays)
	}
	if f.Changed("reminder") {
		def.ReminderTime = habitReminder
	}
	if f.Changed("icon") {
		def.Icon = habitIcon
	}
	if f.Changed("color") {
		def.Color = habitColor
	}
	if f.Changed("notify") {
		def.NotificationsEnabled = habitNotify
	}
}

func addHabitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&habitDescription, "description", "d", "", "description")
	f.StringVarP(&habitCategory, "category", "c", "", "study, health, personal or social")
	f.StringVarP(&habitFrequency, "frequency", "f", "", "daily, weekly or custom")
	f.StringVar(&habitDays, "days", "", "comma separated days, e.g. mon,wed,fri")
	f.StringVar(&habitReminder, "reminder", "", "reminder time HH:MM")
	f.StringVar(&habitIcon, "icon", "", "icon")
	f.StringVar(&habitColor, "color", "", "color")
	f.BoolVar(&habitNotify, "notify", false, "enable reminders")
}

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "filter by category")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by name or description")
	listCmd.Flags().StringVar(&listDate, "date", "", "date to show (YYYY-MM-DD)")

	addHabitFlags(addCmd)
	addHabitFlags(editCmd)
	editCmd.Flags().StringVarP(&editName, "name", "n", "", "new name")

	toggleCmd.Flags().StringVar(&toggleDate, "date", "", "date to toggle (YYYY-MM-DD)")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, deleteCmd, toggleCmd)
}
