package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	SignatureHeader = "X-EverWake-Signature"
	TimestampHeader = "X-EverWake-Timestamp"
	EventHeader     = "X-EverWake-Event"

	// DefaultTolerance bounds the clock skew VerifyRequest accepts.
	DefaultTolerance = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("webhook: missing signature or timestamp")
	ErrInvalidSignature = errors.New("webhook: signature mismatch")
	ErrStaleSignature   = errors.New("webhook: timestamp outside tolerance")
)

// Sign returns the signature header value for a delivery. The MAC covers
// "<unix seconds>.<body>" so a captured delivery cannot be replayed later
// under a fresh timestamp.
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func Verify(secret string, timestamp int64, payload []byte, signature string) bool {
	expected := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// VerifyRequest checks the signature headers of a received delivery against
// its body. Receivers use it; a zero tolerance means DefaultTolerance.
func VerifyRequest(secret string, header http.Header, body []byte, tolerance time.Duration, now time.Time) error {
	signature := header.Get(SignatureHeader)
	rawTS := header.Get(TimestampHeader)
	if signature == "" || rawTS == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return ErrMissingSignature
	}

	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if skew := now.Sub(time.Unix(ts, 0)); skew > tolerance || skew < -tolerance {
		return ErrStaleSignature
	}

	if !Verify(secret, ts, body, signature) {
		return ErrInvalidSignature
	}
	return nil
}
