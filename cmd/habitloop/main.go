package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/dukerupert/habitloop/internal/config"
	"github.com/dukerupert/habitloop/internal/database"
	"github.com/dukerupert/habitloop/internal/jobs"
	"github.com/dukerupert/habitloop/internal/logging"
	"github.com/dukerupert/habitloop/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("set up logging: %v", err)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("habitloop exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) (err error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	srv := server.New(db, cfg, logger)
	defer srv.Close()

	if srv.ArchiveManager().Enabled() {
		logger.Info("archives enabled", "bucket", cfg.S3.Bucket)
	}

	scheduler := jobs.New(srv.SessionStore(), srv.EnginePool(), logger.With("component", "jobs"), srv.RateLimiter())
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("habitloop listening", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
