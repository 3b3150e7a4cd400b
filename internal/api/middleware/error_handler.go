package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// ErrorHandler renders every error as {"error":{"code","message"}}. Client
// errors carry the underlying cause in "details".
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Fiber errors (404 route, 405, body limit)
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "HTTP_ERROR",
					"message": fiberErr.Message,
				},
			})
		}

		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			body := fiber.Map{
				"code":    appErr.Code,
				"message": appErr.Message,
			}

			// Log server-side failures, expose client-side causes
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("path", c.Path()),
					slog.Any("error", appErr.Err),
				)
			} else if appErr.Err != nil {
				body["details"] = appErr.Err.Error()
			}

			return c.Status(appErr.StatusCode).JSON(fiber.Map{"error": body})
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    domain.ErrInternal.Code,
				"message": domain.ErrInternal.Message,
			},
		})
	}
}
