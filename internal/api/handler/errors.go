package handler

import (
	"context"
	"errors"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/interval"
	"github.com/somiljain2006/EverWake/internal/monitor"
)

// monitorError maps monitor command failures onto the API error catalogue.
func monitorError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, monitor.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return domain.ErrMonitorUnavailable.WithError(err)
	case errors.Is(err, interval.ErrInvalidDuration):
		return domain.ErrInvalidSchedule.WithError(err)
	case errors.Is(err, monitor.ErrNoPendingBreak):
		return domain.ErrNoPendingBreak
	default:
		return domain.ErrInternal.WithError(err)
	}
}
