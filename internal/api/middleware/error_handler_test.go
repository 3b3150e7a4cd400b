package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somiljain2006/EverWake/internal/domain"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:       "app error",
			err:        domain.ErrRunNotFound,
			wantStatus: 404,
			wantCode:   "RUN_NOT_FOUND",
		},
		{
			name:        "client error with cause",
			err:         domain.ErrInvalidFrame.WithError(errors.New("timestamp must not be negative")),
			wantStatus:  422,
			wantCode:    "INVALID_FRAME",
			wantDetails: "timestamp must not be negative",
		},
		{
			name:       "server error hides cause",
			err:        domain.ErrInternal.WithError(errors.New("pq: password authentication failed")),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "fiber error",
			err:        fiber.ErrUpgradeRequired,
			wantStatus: 426,
			wantCode:   "HTTP_ERROR",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
			app.Get("/test", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorEnvelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantDetails, body.Error.Details)
		})
	}
}

func TestLogger_ReportsResolvedStatus(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(Logger(testLogger()))
	app.Get("/missing", func(c *fiber.Ctx) error { return domain.ErrRunNotFound })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRecover(t *testing.T) {
	app := fiber.New()
	app.Use(Recover(testLogger()))
	app.Get("/panic", func(c *fiber.Ctx) error { panic("unexpected nil") })

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
