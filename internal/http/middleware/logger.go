package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"appcontext/internal/logging"
)

// Logger logs each HTTP request as one JSON line with
// request_id, method, path, status and latency (milliseconds).
func Logger(log zerolog.Logger) fiber.Handler {
	log = logging.Component(log, "http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collected after the handler ran so the final status is captured.
		// A returned error is rendered by the ErrorHandler later, so map it here.
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := responseStatus(c, err)

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000).
			Msg("request")

		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc, "info"))
}
