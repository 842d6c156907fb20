package middleware

import (
	"log/slog"
	"time"

	"docledger/metrics"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs every request and records its latency. Errors are
// rendered by the app's error handler here so the logged status matches
// what the client receives.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		m.RecordHTTPRequest(c.Method(), route, status, elapsed)

		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.UserContext(), level, "request",
			"method", c.Method(),
			"path", c.Path(),
			"route", route,
			"status", status,
			"duration", elapsed,
		)
		return nil
	}
}
