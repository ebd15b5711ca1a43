package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. Server errors log at error level,
// client errors at warn and everything else at info.
func RequestLogger(logger zerolog.Logger, skip ...string) fiber.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c fiber.Ctx) error {
		if _, ok := skipped[c.Path()]; ok {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()

		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = logger.Error()
		case status >= fiber.StatusBadRequest:
			ev = logger.Warn()
		default:
			ev = logger.Info()
		}

		if id := requestid.FromContext(c); id != "" {
			ev = ev.Str("request_id", id)
		}
		ev.Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Str("user_agent", c.Get("User-Agent")).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", len(c.Response().Body())).
			Msg("HTTP request")

		return err
	}
}
