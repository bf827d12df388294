package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/habitloop/internal/client"
	"github.com/dukerupert/habitloop/internal/dateutil"
	"github.com/dukerupert/habitloop/internal/engine"
	"github.com/dukerupert/habitloop/internal/model"
)

var (
	serverFlag string
	verbose    bool

	cfg *cliConfig
	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "habitctl",
	Short: "Track daily habits from the terminal",
	Long: `habitctl talks to a habitloop server.

QUICK START:

  $ habitctl login --email you@example.com --register
  $ habitctl add "Morning run" --frequency daily
  $ habitctl toggle 1a2b3c4d           # mark done today
  $ habitctl stats                      # completion rate and streaks
  $ habitctl watch                      # live progress from the change feed

The session is kept in $XDG_CONFIG_HOME/habitloop/config.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if serverFlag != "" {
			cfg.Server = serverFlag
		}
		api = client.New(cfg.Server, cfg.Token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "server URL (default from config, else "+defaultServer+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log remote calls")
}

func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// explain turns client errors into messages a user can act on.
func explain(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("not logged in to %s, run 'habitctl login'", cfg.Server)
	}
	return err
}

// loadEngine builds an engine over the server in the user's timezone.
func loadEngine(ctx context.Context) (*engine.Engine, error) {
	loc := time.Local
	settings, err := api.Settings(ctx)
	if err != nil {
		return nil, explain(err)
	}
	if l, err := dateutil.LoadLocation(settings.Timezone); err == nil {
		loc = l
	}

	eng := engine.New(api, engine.WithLocation(loc), engine.WithLogger(logger()))
	if err := eng.Refresh(ctx); err != nil {
		return nil, explain(err)
	}
	return eng, nil
}

// resolveHabit finds a habit by full ID or unique ID prefix.
func resolveHabit(habits []model.Habit, idOrPrefix string) (model.Habit, error) {
	var matches []model.Habit
	for _, h := range habits {
		if h.ID == idOrPrefix {
			return h, nil
		}
		if strings.HasPrefix(h.ID, idOrPrefix) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return model.Habit{}, fmt.Errorf("%w: %s", engine.ErrNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return model.Habit{}, fmt.Errorf("prefix %q matches %d habits", idOrPrefix, len(matches))
	}
}
