package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/somiljain2006/EverWake/internal/config"
	"github.com/somiljain2006/EverWake/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "Migration action: up, down, version, force")
	version := flag.Int("version", 0, "Target version (for force action)")
	steps := flag.Int("steps", 1, "Migrations to roll back (for down action)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HistoryEnabled() {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	db, err := database.OpenSQL(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger.Info("connected to database")

	migrator, err := database.NewMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations applied")

	case "down":
		if err := migrator.Down(*steps); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("migrations rolled back", slog.Int("steps", *steps))

	case "version":
		v, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Info("current version", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))

	case "force":
		if *version == 0 {
			return fmt.Errorf("version flag is required for force action")
		}
		if err := migrator.Force(*version); err != nil {
			return fmt.Errorf("force migration failed: %w", err)
		}
		logger.Info("migration version forced", slog.Int("version", *version))

	default:
		return fmt.Errorf("invalid action: %s (use: up, down, version, force)", *action)
	}

	return nil
}
