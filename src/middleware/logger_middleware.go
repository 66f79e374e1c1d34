package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/metrics"
)

// RequestLogger logs every request and records it in the API metrics. The
// route label is the matched pattern so ids don't explode cardinality.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the response so the status is final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		route := c.Route().Path
		metrics.ObserveRequest(c.Method(), route, strconv.Itoa(status), elapsed)

		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = logging.Error()
		case status >= fiber.StatusBadRequest:
			ev = logging.Warn()
		default:
			ev = logging.Info()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("request")
		return nil
	}
}
