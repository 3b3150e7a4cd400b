package ws

import (
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameMessageSize = 64 * 1024
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// types restricts delivery; empty means every event.
	types map[domain.EventType]bool
}

func (c *Client) wants(t domain.EventType) bool {
	if len(c.types) == 0 {
		return true
	}
	return c.types[t]
}

// parseTypes reads a comma separated ?types= filter.
func parseTypes(raw string) map[domain.EventType]bool {
	if raw == "" {
		return nil
	}
	types := make(map[domain.EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			types[domain.EventType(part)] = true
		}
	}
	return types
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Event sockets are write-only; reads just service pongs and closes
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
