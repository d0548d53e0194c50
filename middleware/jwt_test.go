package middleware

import (
	"net/http/httptest"
	"testing"

	"elimu/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestApp(t *testing.T) *fiber.App {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: "test-secret"}

	app := fiber.New()
	app.Get("/protected", JWTMiddleware, func(c *fiber.Ctx) error {
		return JsonResponse(c, fiber.StatusOK, true, "ok", fiber.Map{
			"userId": c.Locals("userId"),
			"role":   c.Locals("role"),
		})
	})
	return app
}

func TestJWTMiddlewareAcceptsIssuedToken(t *testing.T) {
	app := newAuthTestApp(t)

	token, err := GenerateJWT(42, "Wanjiru", "ADMIN", "wanjiru@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	app := newAuthTestApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTMiddlewareRejectsTokenSignedWithOtherKey(t *testing.T) {
	config.AppConfig = &config.Config{JWTKey: "other-secret"}
	token, err := GenerateJWT(7, "Mallory", "USER", "mallory@example.com")
	require.NoError(t, err)

	app := newAuthTestApp(t) // resets the key to test-secret
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
