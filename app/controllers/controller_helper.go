package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alexfalanx/wevibecode/internal/pkg/locale"
	"github.com/alexfalanx/wevibecode/internal/pkg/middleware"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// requestLocale returns the effective locale of the current page request.
func requestLocale(c *fiber.Ctx) locale.Locale {
	if l, ok := c.Locals(middleware.KeyRequestLocale).(locale.Locale); ok {
		return l
	}
	return locale.Default
}

// localePath prefixes a site-relative path with the request locale.
func localePath(c *fiber.Ctx, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + string(requestLocale(c)) + path
}

// renderPage renders a view with the shared layout data every page needs.
func renderPage(c *fiber.Ctx, view string, data fiber.Map) error {
	userCtx := usercontext.GetUserContext(c)
	if data == nil {
		data = fiber.Map{}
	}
	data["Locale"] = string(requestLocale(c))
	data["IsLoggedIn"] = userCtx.IsLoggedIn
	data["Username"] = userCtx.Username
	data["IsAdmin"] = userCtx.IsAdmin
	return c.Render(view, data)
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}
