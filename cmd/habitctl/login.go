package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	loginName     string
	loginRegister bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in (or register) and save the session",
	Long: `Log in to the server and store the session token.

The password is read from --password, else HABITLOOP_PASSWORD, else a line
on stdin.

EXAMPLES:

  habitctl login --email you@example.com
  habitctl login --email you@example.com --register --name "Sam"
  habitctl --server https://habits.example.com login --email you@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			loginEmail = cfg.Email
		}
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}

		password := loginPassword
		if password == "" {
			password = os.Getenv("HABITLOOP_PASSWORD")
		}
		if password == "" {
			answers, err := prompt(cmd, "Password: ")
			if err != nil {
				return err
			}
			password = answers[0]
		}

		ctx := cmd.Context()
		var err error
		if loginRegister {
			_, err = api.Register(ctx, loginEmail, loginName, password)
		} else {
			_, err = api.Login(ctx, loginEmail, password)
		}
		if err != nil {
			return err
		}

		cfg.Token = api.Token()
		cfg.Email = loginEmail
		if err := saveConfig(cfg); err != nil {
			return err
		}

		color.Green("✓ Logged in as %s", loginEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Token != "" {
			// The server may already have expired the session.
			if err := api.Logout(cmd.Context()); err != nil {
				color.New(color.Faint).Fprintf(cmd.ErrOrStderr(), "server logout: %v\n", err)
			}
		}
		cfg.Token = ""
		if err := saveConfig(cfg); err != nil {
			return err
		}
		color.Yellow("✗ Logged out")
		return nil
	},
}

// prompt writes each question to stderr and reads one stdin line per
// question.
func prompt(cmd *cobra.Command, questions ...string) ([]string, error) {
	in := bufio.NewReader(cmd.InOrStdin())
	answers := make([]string, len(questions))
	for i, q := range questions {
		fmt.Fprint(cmd.ErrOrStderr(), q)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("read input: %w", err)
		}
		answers[i] = strings.TrimRight(line, "\r\n")
	}
	return answers, nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.Flags().StringVar(&loginName, "name", "", "display name (with --register)")
	loginCmd.Flags().BoolVar(&loginRegister, "register", false, "create the account first")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
