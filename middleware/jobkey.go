package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// JobKeyHeader authenticates the external job trigger.
const JobKeyHeader = "X-Job-Key"

// JobKeyMiddleware guards the scheduled-job endpoints with a shared secret.
// The compare is constant-time; a mismatch performs no operation.
func JobKeyMiddleware(expectedKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(JobKeyHeader)
		if expectedKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expectedKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid job trigger key",
			})
		}
		return c.Next()
	}
}
