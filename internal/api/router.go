package api

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/somiljain2006/EverWake/internal/api/docs"
	"github.com/somiljain2006/EverWake/internal/api/handler"
	"github.com/somiljain2006/EverWake/internal/api/middleware"
	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/interval"
	"github.com/somiljain2006/EverWake/internal/ws"
)

// Monitor is everything the HTTP surface needs from the monitor loop.
type Monitor interface {
	Snapshot() domain.Snapshot
	Submit(msg domain.FrameMessage) (bool, error)
	Start(ctx context.Context) (domain.Snapshot, error)
	Stop(ctx context.Context) (domain.Snapshot, error)
	Acknowledge(ctx context.Context) (domain.Snapshot, error)
	ResetTrip(ctx context.Context) (domain.Snapshot, error)
	ConfigureSchedule(ctx context.Context, cfg interval.Config) (domain.Snapshot, error)
	StartBreak(ctx context.Context) (domain.Snapshot, error)
}

type Dependencies struct {
	Monitor Monitor
	Hub     *ws.Hub
	// History is nil when no database is configured
	History handler.HistoryService
	// DB is pinged by /ready, nil when no database is configured
	DB          handler.Pinger
	APIToken    string
	RateLimit   middleware.RateLimiterConfig
	CORSOrigins string
	Version     string
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "EverWake API",
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	origins := r.deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Version)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")
	v1.Use(middleware.TokenAuth(r.deps.APIToken))

	limits := r.deps.RateLimit
	limits.Skip = skipRateLimit
	r.rateLimiter = middleware.NewRateLimiter(limits)
	v1.Use(r.rateLimiter.Handler())

	// Monitor routes
	monitorHandler := handler.NewMonitorHandler(r.deps.Monitor, r.logger)
	v1.Get("/monitor", monitorHandler.Get)
	v1.Post("/monitor/start", monitorHandler.Start)
	v1.Post("/monitor/stop", monitorHandler.Stop)
	v1.Post("/monitor/acknowledge", monitorHandler.Acknowledge)
	v1.Post("/monitor/trip/reset", monitorHandler.ResetTrip)

	// Frame ingest
	frameHandler := handler.NewFrameHandler(r.deps.Monitor)
	v1.Post("/frames", frameHandler.Submit)
	v1.Get("/frames/ws", ws.UpgradeMiddleware(), ws.FramesHandler(r.deps.Monitor, r.logger))

	// Event subscription
	v1.Get("/events/ws", ws.UpgradeMiddleware(), ws.EventsHandler(r.deps.Hub, r.deps.Monitor))

	// Schedule routes
	scheduleHandler := handler.NewScheduleHandler(r.deps.Monitor)
	v1.Get("/schedule", scheduleHandler.Get)
	v1.Put("/schedule", scheduleHandler.Update)
	v1.Post("/schedule/break/start", scheduleHandler.StartBreak)

	// History routes
	historyHandler := handler.NewHistoryHandler(r.deps.History)
	history := v1.Group("/history")
	history.Get("/summary", historyHandler.Summary)
	history.Get("/runs", historyHandler.ListRuns)
	history.Get("/runs/:id", historyHandler.GetRun)
	history.Get("/runs/:id/alerts", historyHandler.ListAlerts)
}

// skipRateLimit exempts the high-rate ingest paths and long-lived sockets.
func skipRateLimit(c *fiber.Ctx) bool {
	path := c.Path()
	return path == "/v1/frames" || strings.HasSuffix(path, "/ws")
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
