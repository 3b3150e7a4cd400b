package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/somiljain2006/EverWake/internal/domain"
)

const (
	writeWait        = 5 * time.Second
	handshakeTimeout = 10 * time.Second
	closeGrace       = time.Second
)

// StreamConfig points the streamer at a server's frame socket.
type StreamConfig struct {
	// URL is the ws:// or wss:// address of /v1/frames/ws
	URL   string
	Token string
	// Speed scales the pacing taken from frame timestamps. Zero sends as
	// fast as the socket allows.
	Speed float64
}

// StreamResult counts what the server rejected.
type StreamResult struct {
	Sent     int
	Rejected int
	Errors   []string
}

type serverError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func dial(ctx context.Context, rawURL, token string) (*websocket.Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", rawURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return conn, nil
}

// Stream sends frames over the ingest socket, pacing them by their
// timestamps.
func Stream(ctx context.Context, cfg StreamConfig, frames []domain.FrameMessage, logger *slog.Logger) (StreamResult, error) {
	conn, err := dial(ctx, cfg.URL, cfg.Token)
	if err != nil {
		return StreamResult{}, err
	}
	defer conn.Close()

	var (
		mu     sync.Mutex
		result StreamResult
	)

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg serverError
			if json.Unmarshal(data, &msg) == nil && msg.Error.Code != "" {
				mu.Lock()
				result.Rejected++
				result.Errors = append(result.Errors, msg.Error.Code+": "+msg.Error.Message)
				mu.Unlock()
				logger.Warn("frame rejected", "code", msg.Error.Code, "message", msg.Error.Message)
			}
		}
	}()

	started := time.Now()
	for i, f := range frames {
		if cfg.Speed > 0 && i > 0 {
			offset := time.Duration((f.Timestamp - frames[0].Timestamp) / cfg.Speed * float64(time.Second))
			if wait := time.Until(started.Add(offset)); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return snapshot(&mu, &result), ctx.Err()
				case <-timer.C:
				}
			}
		}

		if err := ctx.Err(); err != nil {
			return snapshot(&mu, &result), err
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(f); err != nil {
			return snapshot(&mu, &result), fmt.Errorf("send frame %d: %w", i, err)
		}

		mu.Lock()
		result.Sent++
		mu.Unlock()
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))

	select {
	case <-readDone:
	case <-time.After(closeGrace):
	}

	return snapshot(&mu, &result), nil
}

func snapshot(mu *sync.Mutex, r *StreamResult) StreamResult {
	mu.Lock()
	defer mu.Unlock()
	out := *r
	out.Errors = append([]string(nil), r.Errors...)
	return out
}

// EventMessage is one message from the event subscription socket.
type EventMessage struct {
	ID        string           `json:"id"`
	Type      domain.EventType `json:"type"`
	RunID     string           `json:"run_id"`
	TripID    string           `json:"trip_id"`
	Data      json.RawMessage  `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// Watch subscribes to /v1/events/ws and calls fn for every event until ctx
// is cancelled or the server closes the socket.
func Watch(ctx context.Context, rawURL, token string, types []string, fn func(EventMessage)) error {
	if len(types) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		q.Set("types", strings.Join(types, ","))
		u.RawQuery = q.Encode()
		rawURL = u.String()
	}

	conn, err := dial(ctx, rawURL, token)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		var msg EventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		fn(msg)
	}
}

// FramesURL derives the ingest socket address from a server base URL such as
// http://localhost:3000.
func FramesURL(base string) (string, error) {
	return socketURL(base, "/v1/frames/ws")
}

// EventsURL derives the event socket address from a server base URL.
func EventsURL(base string) (string, error) {
	return socketURL(base, "/v1/events/ws")
}

func socketURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New("server url must use http, https, ws or wss")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
