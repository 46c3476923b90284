package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has an ID.
//
// Behavior:
// - Reads X-Request-ID from the incoming request header, generating a UUID when missing.
// - Stores the value in Fiber locals under RequestIDLocalKey and echoes it in the response.
// - Attaches a logger carrying request_id to the user context, retrievable with zerolog.Ctx.
func RequestID(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		reqLog := log.With().Str(RequestIDLocalKey, id).Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		return c.Next()
	}
}
