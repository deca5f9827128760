package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const LocalRequestID = "request_id"

// RequestLogger tags each request with an id and logs it once the handler returns
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid := c.Get(fiber.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals(LocalRequestID, rid)
		c.Set(fiber.HeaderXRequestID, rid)

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		log.Infow("request",
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"elapsed", time.Since(start),
			"user_id", c.Locals(LocalUserID),
		)
		return err
	}
}
