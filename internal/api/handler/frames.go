package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/monitor"
)

const maxFramesPerRequest = 512

// FrameSubmitter queues landmark frames for the monitor.
type FrameSubmitter interface {
	Submit(msg domain.FrameMessage) (bool, error)
}

type FrameHandler struct {
	submitter FrameSubmitter
}

func NewFrameHandler(submitter FrameSubmitter) *FrameHandler {
	return &FrameHandler{submitter: submitter}
}

type SubmitFramesResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// Submit POST /v1/frames - accepts one frame object or an array of frames
func (h *FrameHandler) Submit(c *fiber.Ctx) error {
	frames, err := decodeFrames(c.Body())
	if err != nil {
		return domain.ErrInvalidFrame.WithError(err)
	}

	// Queue each frame; a full inbox drops instead of blocking
	var resp SubmitFramesResponse
	for i, frame := range frames {
		accepted, err := h.submitter.Submit(frame)
		if errors.Is(err, monitor.ErrStopped) {
			return domain.ErrMonitorUnavailable.WithError(err)
		}
		if err != nil {
			return domain.ErrInvalidFrame.WithError(fmt.Errorf("frame %d: %w", i, err))
		}
		if accepted {
			resp.Accepted++
		} else {
			resp.Dropped++
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func decodeFrames(body []byte) ([]domain.FrameMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	// Batch
	if body[0] == '[' {
		var frames []domain.FrameMessage
		if err := json.Unmarshal(body, &frames); err != nil {
			return nil, err
		}
		if len(frames) == 0 {
			return nil, errors.New("no frames")
		}
		if len(frames) > maxFramesPerRequest {
			return nil, fmt.Errorf("at most %d frames per request", maxFramesPerRequest)
		}
		for i, f := range frames {
			if err := f.Validate(); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
		}
		return frames, nil
	}

	// Single frame
	var frame domain.FrameMessage
	if err := json.Unmarshal(body, &frame); err != nil {
		return nil, err
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	return []domain.FrameMessage{frame}, nil
}
