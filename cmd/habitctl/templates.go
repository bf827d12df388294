package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl"},
	Short:   "List habit templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, err := api.Templates(cmd.Context())
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		for _, t := range templates {
			origin := "custom"
			if t.BuiltIn {
				origin = "built-in"
			}
			bold.Fprintf(out, "%s", padRight(t.ID, 20))
			fmt.Fprintf(out, " %s ", t.Name)
			faint.Fprintf(out, "(%s, %s, %d habits)\n", t.Intensity, origin, len(t.Habits))
			if t.Description != "" {
				faint.Fprintf(out, "%s %s\n", padRight("", 20), t.Description)
			}
		}
		return nil
	},
}

var templatesApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Create every habit of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := api.ApplyTemplate(cmd.Context(), args[0])
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Applied %s (%d habits)", args[0], len(created))
		for _, h := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", faint.Sprint(shortID(h.ID)), h.Name)
		}
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesApplyCmd)
	rootCmd.AddCommand(templatesCmd)
}
