package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/himanshu-dandle/telco-customer-churn/internal/metrics"
	"github.com/himanshu-dandle/telco-customer-churn/internal/secrets"
)

// HeaderAPIKey carries the client's API key.
const HeaderAPIKey = "x-api-key"

// APIKey rejects requests whose x-api-key header does not match key.
// An unconfigured key rejects everything with a 500, since the fault lies
// with the deployment rather than the caller.
func APIKey(key secrets.APIKey, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		candidate := c.Get(HeaderAPIKey)
		err := key.Verify(candidate)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, secrets.ErrKeyNotConfigured):
			m.ObserveRejection("not_configured")
			log.Error().
				Str("request_id", RequestID(c)).
				Msg("[Auth] API key is not available; check the key vault configuration")
			return fiber.NewError(fiber.StatusInternalServerError, "Server configuration error")
		default:
			m.ObserveRejection("invalid_key")
			log.Warn().
				Str("request_id", RequestID(c)).
				Str("ip", c.IP()).
				Str("received", secrets.Mask(candidate)).
				Str("expected", key.Masked()).
				Msg("[Auth] invalid API key attempt")
			return fiber.NewError(fiber.StatusForbidden, "Invalid API Key")
		}
	}
}
