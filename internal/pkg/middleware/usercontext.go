package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	anonymous := func() error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			IsLoggedIn: false,
			IsAdmin:    false,
		})
		c.Locals(usercontext.KeyFromProtected, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		return anonymous()
	}
	sess, err := store.Get(c)
	if err != nil {
		return anonymous()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		return anonymous()
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	// Plan and language use a session-first strategy with a settings lookup
	// as fallback, cached back into the session for subsequent requests.
	plan := session.GetSessionValue(c, usercontext.KeyUserPlan)
	language := session.GetSessionValue(c, usercontext.KeyUserLanguage)
	if plan == "" || language == "" {
		if db := database.GetDB(); db != nil {
			if us, err := models.GetOrCreateUserSettings(db, userID); err == nil && us != nil {
				if plan == "" && us.Plan != "" {
					plan = us.Plan
				}
				if language == "" {
					language = us.PreferredLanguage
				}
			}
		}
		if plan == "" {
			plan = "free"
		}
		_ = session.SetSessionValue(c, usercontext.KeyUserPlan, plan)
		if language != "" {
			_ = session.SetSessionValue(c, usercontext.KeyUserLanguage, language)
		}
	}

	userCtx := usercontext.UserContext{
		UserID:            userID,
		Username:          username,
		IsLoggedIn:        true,
		IsAdmin:           isAdmin,
		Plan:              plan,
		PreferredLanguage: language,
	}
	c.Locals(usercontext.KeyUserContext, userCtx)

	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUsername, username)
	c.Locals(usercontext.KeyUserID, userID)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}
