package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account and its timezone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := api.Me(ctx)
		if err != nil {
			return explain(err)
		}
		settings, err := api.Settings(ctx)
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		name := user.Name
		if name == "" {
			name = user.Email
		}
		bold.Fprintln(out, name)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("email   "), user.Email)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("timezone"), settings.Timezone)
		fmt.Fprintf(out, "%s %s\n", faint.Sprint("server  "), api.BaseURL())
		return nil
	},
}

var timezoneCmd = &cobra.Command{
	Use:   "timezone <zone>",
	Short: "Set the IANA timezone that decides what \"today\" is",
	Long: `Set the account timezone. Dates, streaks and the progress window are
computed in this zone.

EXAMPLES:

  habitctl timezone Europe/Berlin
  habitctl timezone America/New_York`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := api.UpdateSettings(cmd.Context(), map[string]string{"timezone": args[0]})
		if err != nil {
			return explain(err)
		}
		color.Green("✓ Timezone set to %s", settings.Timezone)
		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the account password",
	Long: `Change the password. Reads the current and the new password from stdin.
Every other session of the account is signed out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := prompt(cmd, "Current password: ", "New password: ", "Repeat new password: ")
		if err != nil {
			return err
		}
		if answers[1] != answers[2] {
			return errors.New("new passwords do not match")
		}
		if err := api.ChangePassword(cmd.Context(), answers[0], answers[1]); err != nil {
			return explain(err)
		}
		color.Green("✓ Password changed; other sessions were signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd, timezoneCmd, passwdCmd)
}
