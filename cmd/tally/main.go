package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/config"
	"github.com/dukerupert/tally/internal/database"
	"github.com/dukerupert/tally/internal/logging"
	"github.com/dukerupert/tally/internal/logstore"
	"github.com/dukerupert/tally/internal/server"
	"github.com/dukerupert/tally/internal/store"
	"github.com/dukerupert/tally/internal/summary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("TALLY_CONFIG")
	if configPath == "" {
		configPath = "tally.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer := logging.Setup(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logs, err := logstore.Open(ctx, store.NewDocumentStore(db), logstore.Options{Logger: logger})
	if err != nil {
		return err
	}

	var gen summary.Generator
	if cfg.SummaryEnabled() {
		g, err := summary.NewGeminiGenerator(ctx, summary.GeminiConfig{
			APIKey:  cfg.Summary.APIKey,
			Model:   cfg.Summary.Model,
			BaseURL: cfg.Summary.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("create summary generator: %w", err)
		}
		gen = g
	} else {
		logger.Info("summary generation disabled, no API key")
	}
	summarySvc := summary.NewService(gen, logger)

	var interval time.Duration
	if cfg.BackupEnabled() {
		if interval, err = cfg.BackupInterval(); err != nil {
			return err
		}
	}
	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		Passphrase:    cfg.Backup.Passphrase,
		Interval:      interval,
		RetentionDays: cfg.Backup.RetentionDays,
	}, store.NewBackupStore(db), logs, logger, func(s backup.Status) {
		logger.Debug("backup status", "state", s.State, "in_progress", s.InProgress)
	})
	if cfg.BackupEnabled() {
		backupMgr.Start(ctx)
	}
	defer backupMgr.Stop()

	srv := server.New(logs, summarySvc, backupMgr, server.Config{
		SummaryRatePerMinute: cfg.Summary.RatePerMinute,
	}, logger)
	go srv.RateLimiter().Run(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tally running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
