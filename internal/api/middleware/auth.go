package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// TokenAuth protects a route group with a static bearer token. Browsers
// cannot set headers on WebSocket upgrades, so ?token= is accepted as well.
// An empty token disables the check.
func TokenAuth(token string) fiber.Handler {
	if token == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	want := hashToken(token)

	return func(c *fiber.Ctx) error {
		// Header first, then query for WebSocket clients
		presented := extractBearerToken(c)
		if presented == "" {
			presented = c.Query("token")
		}
		if presented == "" {
			return domain.ErrUnauthorized
		}

		// Constant-time compare
		got := hashToken(presented)
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// hashToken fixes the compared length so the comparison does not leak it.
func hashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}
