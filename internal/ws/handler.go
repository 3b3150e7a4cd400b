package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/monitor"
)

// SnapshotSource provides the state sent to a subscriber when it connects.
type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// FrameSubmitter accepts frames from the ingest socket.
type FrameSubmitter interface {
	Submit(msg domain.FrameMessage) (bool, error)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// EventsHandler subscribes a client to monitor events. The first message is
// the current snapshot as a state.changed event.
func EventsHandler(hub *Hub, source SnapshotSource) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := &Client{
			hub:   hub,
			conn:  c,
			send:  make(chan []byte, 256),
			types: parseTypes(c.Query("types")),
		}

		if client.wants(domain.EventStateChanged) {
			snap := source.Snapshot()
			welcome, err := json.Marshal(domain.Event{
				ID:        uuid.New(),
				Type:      domain.EventStateChanged,
				RunID:     snap.RunID,
				TripID:    snap.TripID,
				Data:      snap,
				Timestamp: time.Now(),
			})
			if err == nil {
				client.send <- welcome
			}
		}

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// FramesHandler reads JSON frames until the client disconnects. Malformed
// frames are answered with an error message; the socket stays open.
func FramesHandler(submitter FrameSubmitter, logger *slog.Logger) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer func() { _ = c.Close() }()

		c.SetReadLimit(maxFrameMessageSize)
		remote := c.RemoteAddr().String()
		logger.Info("frame source connected", "remote", remote)

		var dropped int
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				logger.Info("frame source disconnected", "remote", remote, "dropped", dropped)
				return
			}

			var msg domain.FrameMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				if werr := writeError(c, domain.ErrInvalidFrame.Code, err.Error()); werr != nil {
					return
				}
				continue
			}

			accepted, err := submitter.Submit(msg)
			switch {
			case err == nil && !accepted:
				dropped++
			case errors.Is(err, monitor.ErrStopped):
				_ = writeError(c, domain.ErrMonitorUnavailable.Code, domain.ErrMonitorUnavailable.Message)
				return
			case err != nil:
				code := domain.ErrInvalidFrame.Code
				var appErr *domain.AppError
				if errors.As(err, &appErr) {
					code = appErr.Code
				}
				if werr := writeError(c, code, err.Error()); werr != nil {
					return
				}
			}
		}
	})
}

func writeError(c *websocket.Conn, code, message string) error {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	return c.WriteJSON(body)
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
