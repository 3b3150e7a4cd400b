package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/somiljain2006/EverWake/internal/api"
	"github.com/somiljain2006/EverWake/internal/api/middleware"
	"github.com/somiljain2006/EverWake/internal/audit"
	"github.com/somiljain2006/EverWake/internal/config"
	"github.com/somiljain2006/EverWake/internal/database"
	"github.com/somiljain2006/EverWake/internal/history"
	"github.com/somiljain2006/EverWake/internal/monitor"
	"github.com/somiljain2006/EverWake/internal/repository"
	"github.com/somiljain2006/EverWake/internal/webhook"
	"github.com/somiljain2006/EverWake/internal/ws"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting EverWake API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.Bool("history", cfg.HistoryEnabled()),
		slog.Bool("webhook", cfg.WebhookEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	drowsinessCfg, err := cfg.Drowsiness()
	if err != nil {
		return err
	}

	// Shutdown order: monitor, then dispatcher, then the sinks it feeds.
	sinkCtx, cancelSinks := context.WithCancel(context.Background())
	defer cancelSinks()

	dispatcher := monitor.NewDispatcher(logger, cfg.EventBuffer)

	hub := ws.NewHub()
	go hub.Run(sinkCtx)
	dispatcher.Register("websocket", hub)

	deps := &api.Dependencies{
		Hub:         hub,
		APIToken:    cfg.APIToken,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
	}

	// Run history (optional)
	if cfg.HistoryEnabled() {
		v, err := database.MigrateUp(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", slog.Uint64("version", uint64(v)))

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer pool.Close()

		runs := repository.NewRunRepository(pool)
		alerts := repository.NewAlertRepository(pool)

		dispatcher.Register("history", history.NewRecorder(runs, alerts, logger))
		deps.History = history.NewService(runs, alerts)
		deps.DB = pool

		if cfg.HistoryRetention > 0 {
			pruner := history.NewPruner(runs, cfg.HistoryRetention, cfg.HistoryPruneInterval, logger)
			go pruner.Start(sinkCtx)
		}
	}

	// Webhook delivery (optional)
	var worker *webhook.Worker
	if cfg.WebhookEnabled() {
		service := webhook.NewService(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout)
		worker = webhook.NewWorker(service, webhook.WorkerConfig{
			MaxAttempts: cfg.WebhookMaxAttempts,
		}, logger)
		go worker.Run(sinkCtx)
		dispatcher.Register("webhook", worker)
	}

	dispatcher.Register("audit", audit.NewSink(audit.NewSlogLogger(logger)))

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	go dispatcher.Run(dispatchCtx)

	mon, err := monitor.New(monitor.Options{
		Threshold:    cfg.OpennessThreshold,
		Drowsiness:   drowsinessCfg,
		Schedule:     cfg.Schedule(),
		TickInterval: cfg.ScheduleTick,
		FrameBuffer:  cfg.FrameBuffer,
	}, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("failed to build monitor: %w", err)
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	go mon.Run(monitorCtx)

	// Setup router
	deps.Monitor = mon
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		serveErr = fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	cancelMonitor()
	<-mon.Done()

	// Drain queued events before the sinks go away
	cancelDispatch()
	timeout := time.After(10 * time.Second)
	select {
	case <-dispatcher.Done():
	case <-timeout:
		logger.Warn("event dispatcher did not drain in time")
	}

	cancelSinks()
	if worker != nil {
		select {
		case <-worker.Done():
		case <-timeout:
			logger.Warn("webhook worker did not finish in time")
		}
	}

	logger.Info("server stopped", slog.Uint64("dropped_events", dispatcher.Dropped()))

	return serveErr
}
