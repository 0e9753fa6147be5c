package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/alexfalanx/wevibecode/internal/pkg/locale"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to the locale-aware
// login page if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !loggedIn(c) {
		l := locale.Default
		if v, ok := c.Locals(KeyRequestLocale).(locale.Locale); ok {
			l = v
		}
		return c.Redirect("/"+string(l)+"/login", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !loggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

func loggedIn(c *fiber.Ctx) bool {
	v := c.Locals(usercontext.KeyFromProtected)
	b, ok := v.(bool)
	return ok && b
}
