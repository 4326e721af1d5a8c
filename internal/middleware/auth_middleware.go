package middleware

import (
	"errors"

	"go-stockwise/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth gates a route behind a valid session. A successful check
// slides the session expiry; the resolved user lands in c.Locals for
// downstream handlers. With roles given, the session's role must be in the
// set exactly, there is no hierarchy.
func RequireAuth(sessions *session.Manager, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := sessions.RequireAuth(roles...)
		if err != nil {
			if errors.Is(err, session.ErrAccessDenied) {
				return c.Status(403).JSON(fiber.Map{"error": "You don't have permission to access this page."})
			}
			return c.Status(401).JSON(fiber.Map{"error": "Authentication required"})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_name", user.Username)
		c.Locals("user_role", user.Role)

		return c.Next()
	}
}
