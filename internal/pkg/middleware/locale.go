package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/locale"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

// LocaleCookie is the dedicated preference cookie read by the resolver and
// written by the language switch endpoint.
const LocaleCookie = "preferred_locale"

// KeyRequestLocale is the Locals key carrying the effective locale of a
// locale-prefixed page request.
const KeyRequestLocale = "REQUEST_LOCALE"

var localeResolver = locale.NewResolver()

// LocaleRedirect ensures every page request is locale-prefixed. Requests that
// already carry a recognized locale segment, API and webhook routes, and
// static assets pass through unchanged. Everything else is redirected to the
// same path and query prefixed with the resolved locale.
func LocaleRedirect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The session refresh rides on every pass-through request, not just
		// redirects, and never influences the resolved locale.
		if err := session.Refresh(c); err != nil {
			log.Debugf("session refresh skipped: %v", err)
		}

		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Next()
		}

		path := c.Path()
		if skipLocaleResolution(path) {
			return c.Next()
		}

		if l, ok := localePrefix(path); ok {
			c.Locals(KeyRequestLocale, l)
			return c.Next()
		}

		resolved := localeResolver.Resolve(locale.Request{
			PreferredLanguage: storedLanguagePreference(c),
			Cookie:            c.Cookies(LocaleCookie),
			AcceptLanguage:    c.Get(fiber.HeaderAcceptLanguage),
		})

		target := "/" + string(resolved) + path
		if qs := string(c.Request().URI().QueryString()); qs != "" {
			target += "?" + qs
		}
		return c.Redirect(target, fiber.StatusTemporaryRedirect)
	}
}

// RequestLocale returns the effective locale of the current page request.
func RequestLocale(c *fiber.Ctx) locale.Locale {
	if l, ok := c.Locals(KeyRequestLocale).(locale.Locale); ok {
		return l
	}
	return locale.Default
}

// storedLanguagePreference looks up the authenticated user's stored UI
// language. Any failure along the way (no session, no user, database error)
// yields an empty preference so resolution degrades to the cookie step
// instead of aborting the request.
func storedLanguagePreference(c *fiber.Ctx) string {
	store := session.GetSessionStore()
	if store == nil {
		return ""
	}
	sess, err := store.Get(c)
	if err != nil {
		return ""
	}
	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		return ""
	}

	// Session-cached value avoids a settings lookup per request.
	if lang := session.GetSessionValue(c, usercontext.KeyUserLanguage); lang != "" {
		return lang
	}

	db := database.GetDB()
	if db == nil {
		return ""
	}
	us, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		log.Warnf("language preference lookup failed for user %d: %v", userID, err)
		return ""
	}
	if us.PreferredLanguage != "" {
		_ = session.SetSessionValue(c, usercontext.KeyUserLanguage, us.PreferredLanguage)
	}
	return us.PreferredLanguage
}

// localePrefix reports whether the path already starts with a supported
// locale segment.
func localePrefix(path string) (locale.Locale, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	seg := trimmed
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		seg = trimmed[:idx]
	}
	return locale.Parse(seg)
}

// skipLocaleResolution filters out routes that never carry a locale segment:
// API and webhook endpoints, OAuth flows, published sites, operational
// surfaces, and any static asset (detected by file extension).
func skipLocaleResolution(path string) bool {
	for _, prefix := range []string{"/api/", "/webhooks/", "/auth/", "/s/", "/docs", "/metrics", "/uploads/", "/_"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// Anything with a file extension is a static asset.
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 && strings.Contains(path[idx:], ".") {
		return true
	}
	return false
}
