package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/somiljain2006/EverWake/internal/domain"
)

const userAgent = "EverWake-Webhook/1.0"

// Service delivers signed payloads to a single endpoint.
type Service struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

func NewService(url, secret string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Send POSTs one payload. Any transport error or 4xx/5xx answer is an error.
func (s *Service) Send(ctx context.Context, eventType domain.EventType, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	ts := s.now().Unix()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TimestampHeader, strconv.FormatInt(ts, 10))
	req.Header.Set(SignatureHeader, Sign(s.secret, ts, payload))
	req.Header.Set(EventHeader, string(eventType))
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("post webhook: HTTP %d", resp.StatusCode)
	}

	return nil
}
