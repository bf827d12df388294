package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the change feed and reprint progress",
	Long: `Keep an engine in sync with the server's change feed and print the
progress window whenever a habit or completion changes. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := loadEngine(ctx)
		if err != nil {
			return err
		}
		msgs, err := api.Subscribe(ctx)
		if err != nil {
			return explain(err)
		}

		out := cmd.OutOrStdout()
		printProgress(out, eng.Progress())
		for msg := range msgs {
			if err := eng.Refresh(ctx); err != nil {
				faint.Fprintf(out, "refresh failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out)
			faint.Fprintf(out, "%s %s\n", msg.Type, shortID(msg.ID))
			printProgress(out, eng.Progress())
		}

		if ctx.Err() == nil {
			return errors.New("change feed closed by server")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
