package middleware

import (
	"time"

	"jementraine/internal/util"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// LocalRequestID is the fiber locals key of the request id.
const LocalRequestID = "request_id"

// RequestLogger assigns every request an id (reusing the caller's when
// present) and logs it once the response is known.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = util.NewULID()
		}
		c.Locals(LocalRequestID, requestID)
		c.Set(RequestIDHeader, requestID)

		// Resolve errors here so the logged status is the one sent.
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		log.Info("HTTP Request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		)
		return nil
	}
}
