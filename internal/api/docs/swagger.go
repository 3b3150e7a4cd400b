package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
	Details string `json:"details,omitempty" example:"limit must be between 1 and 200"`
}

// HealthResponse represents the liveness/readiness payload
type HealthResponse struct {
	Status   string `json:"status" example:"ready"`
	Version  string `json:"version,omitempty" example:"1.0.0"`
	Database string `json:"database,omitempty" example:"ok"`
}

// ScheduleResponse represents the focus/break scheduler state
type ScheduleResponse struct {
	Enabled          bool   `json:"enabled" example:"true"`
	Phase            string `json:"phase" example:"focus"`
	Remaining        int    `json:"remaining" example:"1499"`
	Clock            string `json:"clock" example:"24:59"`
	FocusSeconds     int    `json:"focus_seconds" example:"1500"`
	BreakSeconds     int    `json:"break_seconds" example:"300"`
	ManualBreakStart bool   `json:"manual_break_start" example:"false"`
}

// StatsResponse represents frame and event counters
type StatsResponse struct {
	FramesReceived  uint64 `json:"frames_received" example:"1800"`
	FramesApplied   uint64 `json:"frames_applied" example:"1795"`
	FramesStale     uint64 `json:"frames_stale" example:"3"`
	FramesDiscarded uint64 `json:"frames_discarded" example:"0"`
	FramesDropped   uint64 `json:"frames_dropped" example:"2"`
	AmbiguousFrames uint64 `json:"ambiguous_frames" example:"41"`
	EventsDropped   uint64 `json:"events_dropped" example:"0"`
}

// SnapshotResponse represents the observable monitor state
type SnapshotResponse struct {
	IsRunning           bool             `json:"is_running" example:"true"`
	Suspended           bool             `json:"suspended" example:"false"`
	EyesOpen            bool             `json:"eyes_open" example:"true"`
	ClosedDuration      float64          `json:"closed_duration" example:"0"`
	Phase               string           `json:"phase" example:"open"`
	AlertThreshold      float64          `json:"alert_threshold" example:"2.5"`
	TotalTripDuration   float64          `json:"total_trip_duration" example:"3600.5"`
	LastSessionDuration float64          `json:"last_session_duration" example:"1200"`
	AlertsCount         int              `json:"alerts_count" example:"1"`
	LastSessionAlerts   int              `json:"last_session_alerts" example:"0"`
	RunID               string           `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TripID              string           `json:"trip_id" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	Schedule            ScheduleResponse `json:"schedule"`
	Stats               StatsResponse    `json:"stats"`
	UpdatedAt           string           `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// PointRequest is one normalized landmark point
type PointRequest struct {
	X float64 `json:"x" example:"0.42"`
	Y float64 `json:"y" example:"0.37"`
}

// FrameRequest is one landmark frame
type FrameRequest struct {
	Timestamp float64        `json:"timestamp" example:"12.533"`
	NoFace    bool           `json:"no_face,omitempty" example:"false"`
	LeftEye   []PointRequest `json:"left_eye,omitempty"`
	RightEye  []PointRequest `json:"right_eye,omitempty"`
}

// SubmitFramesResponse reports how many frames were queued
type SubmitFramesResponse struct {
	Accepted int `json:"accepted" example:"30"`
	Dropped  int `json:"dropped" example:"0"`
}

// ScheduleRequest configures the focus/break cycle
type ScheduleRequest struct {
	FocusSeconds     int  `json:"focus_seconds" example:"1500"`
	BreakSeconds     int  `json:"break_seconds" example:"300"`
	ManualBreakStart bool `json:"manual_break_start" example:"false"`
}

// RunResponse represents a persisted run
type RunResponse struct {
	ID         string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TripID     string `json:"trip_id" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	StartedAt  string `json:"started_at" example:"2024-01-01T08:00:00Z"`
	EndedAt    string `json:"ended_at,omitempty" example:"2024-01-01T08:20:00Z"`
	DurationMs int64  `json:"duration_ms" example:"1200000"`
	Alerts     int    `json:"alerts" example:"2"`
	StopReason string `json:"stop_reason,omitempty" example:"user"`
}

// ListRunsResponse is a page of runs
type ListRunsResponse struct {
	Runs   []RunResponse `json:"runs"`
	Limit  int           `json:"limit" example:"20"`
	Offset int           `json:"offset" example:"0"`
}

// AlertResponse represents a persisted alert
type AlertResponse struct {
	ID               string `json:"id" example:"3f2504e0-4f89-11d3-9a0c-0305e82c3301"`
	RunID            string `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RaisedAt         string `json:"raised_at" example:"2024-01-01T08:05:00Z"`
	ClosedDurationMs int64  `json:"closed_duration_ms" example:"2500"`
	AcknowledgedAt   string `json:"acknowledged_at,omitempty" example:"2024-01-01T08:05:04Z"`
}

// SummaryResponse aggregates runs in a time window
type SummaryResponse struct {
	Since              string  `json:"since" example:"2024-01-01T00:00:00Z"`
	Runs               int     `json:"runs" example:"12"`
	TotalDurationMs    int64   `json:"total_duration_ms" example:"14400000"`
	Alerts             int     `json:"alerts" example:"5"`
	AcknowledgedAlerts int     `json:"acknowledged_alerts" example:"5"`
	AvgClosedMs        float64 `json:"avg_closed_ms" example:"2740.5"`
}

// ListAlertsResponse lists the alerts of a run
type ListAlertsResponse struct {
	RunID  string          `json:"run_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Alerts []AlertResponse `json:"alerts"`
}

var (
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API token"}, "401", "Unauthorized")
	errRateLimited  = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errUnavailable  = response.New(ErrorResponse{Code: "MONITOR_UNAVAILABLE", Message: "Monitor is shutting down or not accepting commands"}, "503", "Service Unavailable")
	errDisabled     = response.New(ErrorResponse{Code: "HISTORY_DISABLED", Message: "Run history requires a configured database"}, "501", "Not Implemented")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

	bearer = []map[string][]string{{"BearerAuth": {}}}
)

// monitorCommand documents the POST /monitor/* commands, which share a shape.
func monitorCommand(path, summary, description string) *endpoint.EndPoint {
	return endpoint.New(
		endpoint.POST,
		path,
		endpoint.WithTags("Monitor"),
		endpoint.WithSummary(summary),
		endpoint.WithDescription(description),
		endpoint.WithProduce([]mime.MIME{mime.JSON}),
		endpoint.WithSuccessfulReturns([]response.Response{
			response.New(SnapshotResponse{}, "200", "State after the command"),
		}),
		endpoint.WithErrors([]response.Response{errUnauthorized, errRateLimited, errUnavailable}),
		endpoint.WithSecurity(bearer),
	)
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "EverWake API",
		Version:     "v1.0.0",
		Description: "Drowsiness monitoring and focus/break scheduling from streamed eye landmarks",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Process is alive"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the history database when one is configured"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Ready to serve"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable", Database: "unreachable"}, "503", "Database unreachable"),
			}),
		),

		// Monitor

		endpoint.New(
			endpoint.GET,
			"/v1/monitor",
			endpoint.WithTags("Monitor"),
			endpoint.WithSummary("Current monitor state"),
			endpoint.WithDescription("Returns the latest snapshot: alert phase, closure duration, trip totals, schedule and frame counters"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SnapshotResponse{}, "200", "Snapshot"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRateLimited}),
			endpoint.WithSecurity(bearer),
		),
		monitorCommand("/v1/monitor/start", "Start a run", "Starts monitoring. No-op when a run is already in progress."),
		monitorCommand("/v1/monitor/stop", "Stop the run", "Stops monitoring and folds the run into the trip totals. Idempotent."),
		monitorCommand("/v1/monitor/acknowledge", "Acknowledge the alert", "Clears the current closure episode; the next closed frame starts a new one."),
		monitorCommand("/v1/monitor/trip/reset", "Reset trip totals", "Zeroes trip and last-run durations and opens a new trip. A live run keeps going."),

		// Frames

		endpoint.New(
			endpoint.POST,
			"/v1/frames",
			endpoint.WithTags("Frames"),
			endpoint.WithSummary("Submit landmark frames"),
			endpoint.WithDescription("Accepts one frame object or an array of up to 512 frames. Frames are queued without blocking; a full queue drops them."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(FrameRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubmitFramesResponse{}, "202", "Frames queued"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "INVALID_FRAME", Message: "Frame payload is malformed"}, "422", "Unprocessable Entity"),
				errUnavailable,
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/frames/ws",
			endpoint.WithTags("Frames"),
			endpoint.WithSummary("Frame ingest socket"),
			endpoint.WithDescription("WebSocket upgrade. Send one JSON frame per text message. Malformed frames are answered with an error message."),
			endpoint.WithParams(
				parameter.StrParam("token", parameter.Query, parameter.WithDescription("API token for clients that cannot set headers")),
			),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/events/ws",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Event subscription socket"),
			endpoint.WithDescription("WebSocket upgrade. The first message is the current state; then every monitor event as {id,type,run_id,trip_id,data,timestamp}."),
			endpoint.WithParams(
				parameter.StrParam("types", parameter.Query, parameter.WithDescription("Comma separated event types, e.g. alert.raised,break.requested")),
				parameter.StrParam("token", parameter.Query, parameter.WithDescription("API token for clients that cannot set headers")),
			),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
			endpoint.WithSecurity(bearer),
		),

		// Schedule

		endpoint.New(
			endpoint.GET,
			"/v1/schedule",
			endpoint.WithTags("Schedule"),
			endpoint.WithSummary("Focus/break schedule"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ScheduleResponse{}, "200", "Schedule state"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errRateLimited}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.PUT,
			"/v1/schedule",
			endpoint.WithTags("Schedule"),
			endpoint.WithSummary("Configure focus/break durations"),
			endpoint.WithDescription("Resets the cycle. Omitted durations disable the timer; explicit non-positive durations are rejected and leave it disabled."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ScheduleRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ScheduleResponse{}, "200", "Schedule updated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				errUnauthorized,
				response.New(ErrorResponse{Code: "INVALID_SCHEDULE", Message: "Focus and break durations must be positive whole seconds"}, "422", "Unprocessable Entity"),
				errRateLimited,
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.POST,
			"/v1/schedule/break/start",
			endpoint.WithTags("Schedule"),
			endpoint.WithSummary("Start a pending break"),
			endpoint.WithDescription("Confirms a break when manual_break_start is enabled and focus time has run out"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ScheduleResponse{}, "200", "Break started"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "NO_PENDING_BREAK", Message: "There is no break waiting to be started"}, "409", "Conflict"),
				errRateLimited,
			}),
			endpoint.WithSecurity(bearer),
		),

		// History

		endpoint.New(
			endpoint.GET,
			"/v1/history/summary",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Run totals"),
			endpoint.WithDescription("Aggregates runs and alerts since a timestamp or over the last N days"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("RFC 3339 start of the window, overrides days")),
				parameter.IntParam("days", parameter.Query, parameter.WithDescription("Window length in days (1-365, default: 7)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SummaryResponse{}, "200", "Totals"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				errDisabled,
				errInternal,
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/history/runs",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Recent runs"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Page size (1-200, default: 20)")),
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Rows to skip (default: 0)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListRunsResponse{}, "200", "Runs, newest first"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				errDisabled,
				errInternal,
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/history/runs/{id}",
			endpoint.WithTags("History"),
			endpoint.WithSummary("One run"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Run ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RunResponse{}, "200", "Run"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "RUN_NOT_FOUND", Message: "Run not found"}, "404", "Not Found"),
				errDisabled,
			}),
			endpoint.WithSecurity(bearer),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/history/runs/{id}/alerts",
			endpoint.WithTags("History"),
			endpoint.WithSummary("Alerts raised during a run"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Run ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ListAlertsResponse{}, "200", "Alerts in raise order"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "RUN_NOT_FOUND", Message: "Run not found"}, "404", "Not Found"),
				errDisabled,
			}),
			endpoint.WithSecurity(bearer),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
