package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/alexfalanx/wevibecode/app/controllers"
	"github.com/alexfalanx/wevibecode/internal/pkg/middleware"
	"github.com/alexfalanx/wevibecode/internal/pkg/oauth"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Locale redirect runs before user context so anonymous visitors get a
	// locale-prefixed URL on the very first request.
	app.Use(middleware.LocaleRedirect())
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerLocalePages(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Published sites, served from the database
	app.Get("/s/:slug", controllers.HandlePublishedSite)
	app.Get("/s/:slug/*", controllers.HandlePublishedSite)

	// Auth form posts (not locale-prefixed, they redirect into a locale)
	app.Post("/login", controllers.HandleAuthLogin)
	app.Post("/register", controllers.HandleAuthRegister)
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)
	app.Post("/language", controllers.HandleSwitchLanguage)

	// Social OAuth
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
	app.Get("/auth/:provider", controllers.HandleOAuthStart)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Payment provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/payment", controllers.HandlePaymentWebhook)
}

// registerLocalePages mounts every HTML page under its locale prefix. The
// locale middleware guarantees :lang is one of the supported locales by the
// time these handlers run.
func (h HttpRouter) registerLocalePages(app *fiber.App) {
	pages := app.Group("/:lang<regex(en|es|it|pl|de)>")

	pages.Get("/", controllers.HandleHome)
	pages.Get("/pricing", controllers.HandlePricing)
	pages.Get("/login", controllers.HandleLoginPage)
	pages.Get("/register", controllers.HandleRegisterPage)
	pages.Get("/activate", controllers.HandleActivate)

	pages.Get("/dashboard", middleware.RequireAuth, controllers.HandleDashboard)
	pages.Get("/editor/:uuid", middleware.RequireAuth, controllers.HandleEditor)
}
