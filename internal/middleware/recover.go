package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// Recover turns a panic into a 500 and logs it with the request context.
// Register it after the requestid and Logging middleware so the panic log
// carries the request id and the access line is still written.
func Recover() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error().
				Str("request_id", RequestID(c)).
				Str("ip", c.IP()).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Bytes("body", c.Body()).
				Interface("panic", e).
				Bytes("stack", debug.Stack()).
				Msg("[HTTP] panic recovered")
		},
	})
}
