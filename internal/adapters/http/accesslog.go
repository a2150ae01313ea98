package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// probePaths are hit by orchestrators and scrapers every few seconds.
var probePaths = map[string]bool{
	"/v1/health": true,
	"/v1/ready":  true,
	"/metrics":   true,
}

// AccessLogMiddleware writes one structured line per request. Successful
// probe requests are logged at debug level.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		status := c.Response().StatusCode()
		requestID, _ := c.Locals("requestid").(string)

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("request_id", requestID),
		}
		if route := c.Route().Path; route != "" && route != path {
			attrs = append(attrs, slog.String("route", route))
		}

		var level slog.Level
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case probePaths[path]:
			level = slog.LevelDebug
		default:
			level = slog.LevelInfo
		}

		slog.LogAttrs(c.UserContext(), level, "http request", attrs...)
		return err
	}
}
