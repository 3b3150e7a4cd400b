package api

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somiljain2006/EverWake/internal/api/middleware"
	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/interval"
	"github.com/somiljain2006/EverWake/internal/monitor"
	"github.com/somiljain2006/EverWake/internal/replay"
	"github.com/somiljain2006/EverWake/internal/ws"
)

type fakeMonitor struct {
	mu       sync.Mutex
	snap     domain.Snapshot
	frames   int
	schedule interval.Config
}

func (f *fakeMonitor) Snapshot() domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeMonitor) Submit(domain.FrameMessage) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	return true, nil
}

func (f *fakeMonitor) set(fn func(*domain.Snapshot)) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.snap)
	return f.snap, nil
}

func (f *fakeMonitor) Start(context.Context) (domain.Snapshot, error) {
	return f.set(func(s *domain.Snapshot) { s.IsRunning = true })
}

func (f *fakeMonitor) Stop(context.Context) (domain.Snapshot, error) {
	return f.set(func(s *domain.Snapshot) { s.IsRunning = false })
}

func (f *fakeMonitor) Acknowledge(context.Context) (domain.Snapshot, error) {
	return f.set(func(s *domain.Snapshot) { s.ClosedDuration = 0 })
}

func (f *fakeMonitor) ResetTrip(context.Context) (domain.Snapshot, error) {
	return f.set(func(s *domain.Snapshot) { s.TotalTripDuration = 0 })
}

func (f *fakeMonitor) ConfigureSchedule(_ context.Context, cfg interval.Config) (domain.Snapshot, error) {
	f.mu.Lock()
	f.schedule = cfg
	f.mu.Unlock()
	return f.set(func(s *domain.Snapshot) {
		s.Schedule.Enabled = cfg.Enabled()
		s.Schedule.FocusSeconds = cfg.FocusSeconds
		s.Schedule.BreakSeconds = cfg.BreakSeconds
	})
}

func (f *fakeMonitor) StartBreak(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, monitor.ErrNoPendingBreak
}

func newTestRouter(t *testing.T, token string, limit int) (*Router, *fakeMonitor) {
	t.Helper()

	mon := &fakeMonitor{}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), &Dependencies{
		Monitor:   mon,
		Hub:       ws.NewHub(),
		APIToken:  token,
		RateLimit: middleware.RateLimiterConfig{Max: limit, Window: time.Minute},
		Version:   "test",
	})
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })
	return r, mon
}

func do(t *testing.T, r *Router, method, path, body, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, "secret", 100)

	resp := do(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, r, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RequiresToken(t *testing.T) {
	r, _ := newTestRouter(t, "secret", 100)

	resp := do(t, r, http.MethodGet, "/v1/monitor", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, r, http.MethodGet, "/v1/monitor", "", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, r, http.MethodGet, "/v1/monitor", "", "secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_OpenWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t, "", 100)

	resp := do(t, r, http.MethodGet, "/v1/monitor", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MonitorCommands(t *testing.T) {
	r, mon := newTestRouter(t, "", 100)

	resp := do(t, r, http.MethodPost, "/v1/monitor/start", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, mon.Snapshot().IsRunning)

	resp = do(t, r, http.MethodPost, "/v1/monitor/stop", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, mon.Snapshot().IsRunning)

	for _, path := range []string{"/v1/monitor/acknowledge", "/v1/monitor/trip/reset"} {
		resp = do(t, r, http.MethodPost, path, "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRouter_Schedule(t *testing.T) {
	r, mon := newTestRouter(t, "", 100)

	resp := do(t, r, http.MethodPut, "/v1/schedule", `{"focus_seconds":1500,"break_seconds":300}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mon.mu.Lock()
	assert.Equal(t, 1500, mon.schedule.FocusSeconds)
	assert.Equal(t, 300, mon.schedule.BreakSeconds)
	mon.mu.Unlock()

	resp = do(t, r, http.MethodPost, "/v1/schedule/break/start", "", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouter_HistoryDisabledWithoutDatabase(t *testing.T) {
	r, _ := newTestRouter(t, "", 100)

	resp := do(t, r, http.MethodGet, "/v1/history/runs", "", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestRouter_FramesSkipRateLimit(t *testing.T) {
	r, mon := newTestRouter(t, "", 2)

	frame := `{"timestamp":1.5,"no_face":true}`
	for i := 0; i < 5; i++ {
		resp := do(t, r, http.MethodPost, "/v1/frames", frame, "")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	mon.mu.Lock()
	assert.Equal(t, 5, mon.frames)
	mon.mu.Unlock()

	do(t, r, http.MethodGet, "/v1/monitor", "", "")
	do(t, r, http.MethodGet, "/v1/monitor", "", "")
	resp := do(t, r, http.MethodGet, "/v1/monitor", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRouter_SocketsRequireUpgrade(t *testing.T) {
	r, _ := newTestRouter(t, "", 100)

	for _, path := range []string{"/v1/frames/ws", "/v1/events/ws"} {
		resp := do(t, r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode, path)
	}
}

func serve(t *testing.T, r *Router) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = r.App().Listener(ln) }()
	return "http://" + ln.Addr().String()
}

func (f *fakeMonitor) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func TestRouter_FrameSocket(t *testing.T) {
	r, mon := newTestRouter(t, "secret", 100)
	target, err := replay.FramesURL(serve(t, r))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	frames := []domain.FrameMessage{
		{Timestamp: 1, NoFace: true},
		{Timestamp: 2, NoFace: true},
		{Timestamp: 3, NoFace: true},
	}

	result, err := replay.Stream(context.Background(), replay.StreamConfig{URL: target, Token: "secret"}, frames, logger)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
	assert.Zero(t, result.Rejected)

	require.Eventually(t, func() bool { return mon.frameCount() == 3 }, time.Second, 10*time.Millisecond)

	_, err = replay.Stream(context.Background(), replay.StreamConfig{URL: target}, frames, logger)
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestRouter_EventSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	mon := &fakeMonitor{}
	_, _ = mon.Start(ctx)

	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), &Dependencies{
		Monitor:   mon,
		Hub:       hub,
		RateLimit: middleware.RateLimiterConfig{Max: 100, Window: time.Minute},
	})
	r.Setup()
	t.Cleanup(func() { _ = r.Shutdown() })

	target, err := replay.EventsURL(serve(t, r))
	require.NoError(t, err)

	watchCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()

	var got []replay.EventMessage
	err = replay.Watch(watchCtx, target, "", []string{"state.changed"}, func(m replay.EventMessage) {
		got = append(got, m)
		stop()
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventStateChanged, got[0].Type)
	assert.Contains(t, string(got[0].Data), `"is_running":true`)
}
