package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches catalogue errors by code, so errors.Is(err, ErrRunNotFound)
// holds for copies made by WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API token",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Monitor errors
	ErrInvalidFrame = &AppError{
		Code:       "INVALID_FRAME",
		Message:    "Frame payload is malformed",
		StatusCode: 422,
	}

	ErrMonitorUnavailable = &AppError{
		Code:       "MONITOR_UNAVAILABLE",
		Message:    "Monitor is shutting down or not accepting commands",
		StatusCode: 503,
	}

	// Schedule errors
	ErrInvalidSchedule = &AppError{
		Code:       "INVALID_SCHEDULE",
		Message:    "Focus and break durations must be positive whole seconds",
		StatusCode: 422,
	}

	ErrNoPendingBreak = &AppError{
		Code:       "NO_PENDING_BREAK",
		Message:    "There is no break waiting to be started",
		StatusCode: 409,
	}

	// History errors
	ErrHistoryDisabled = &AppError{
		Code:       "HISTORY_DISABLED",
		Message:    "Run history requires a configured database",
		StatusCode: 501,
	}

	ErrRunNotFound = &AppError{
		Code:       "RUN_NOT_FOUND",
		Message:    "Run not found",
		StatusCode: 404,
	}
)
