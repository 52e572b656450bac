package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobKeyApp(key string) *fiber.App {
	app := fiber.New()
	app.Post("/jobs/test", JobKeyMiddleware(key), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestJobKeyMiddlewareAcceptsMatchingKey(t *testing.T) {
	app := newJobKeyApp("super-secreto")

	req := httptest.NewRequest("POST", "/jobs/test", nil)
	req.Header.Set(JobKeyHeader, "super-secreto")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJobKeyMiddlewareRejectsBadOrMissingKey(t *testing.T) {
	app := newJobKeyApp("super-secreto")

	for _, key := range []string{"", "equivocada"} {
		req := httptest.NewRequest("POST", "/jobs/test", nil)
		if key != "" {
			req.Header.Set(JobKeyHeader, key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestJobKeyMiddlewareRejectsWhenUnconfigured(t *testing.T) {
	app := newJobKeyApp("")

	req := httptest.NewRequest("POST", "/jobs/test", nil)
	req.Header.Set(JobKeyHeader, "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
