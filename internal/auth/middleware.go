package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fairyhunter13/trek-booking-system/internal/model"
)

const sessionKey = "session"

// Authenticate attaches the session of a valid bearer token to the request.
// Requests without an Authorization header pass through anonymously; a
// malformed or invalid token is rejected with 401.
func Authenticate(lookup SessionLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidToken.Error()})
		}
		sess, err := lookup.Lookup(strings.TrimSpace(token))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": ErrInvalidToken.Error()})
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		return c.Next()
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !sess.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

// SessionFrom returns the request's session, or nil for anonymous requests.
func SessionFrom(c *fiber.Ctx) *model.Session {
	sess, _ := c.Locals(sessionKey).(*model.Session)
	return sess
}

// WithSession stores sess on the request. Used by tests and trusted internal callers.
func WithSession(c *fiber.Ctx, sess *model.Session) {
	c.Locals(sessionKey, sess)
}
