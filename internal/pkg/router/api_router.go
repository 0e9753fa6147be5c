package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/alexfalanx/wevibecode/app/controllers"
	"github.com/alexfalanx/wevibecode/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.RequireAPISessionAuth)

	v1.Post("/generate", controllers.HandleGenerate)

	v1.Get("/previews", controllers.HandleListPreviews)
	v1.Get("/previews/:uuid", controllers.HandleGetPreview)
	v1.Put("/previews/:uuid", controllers.HandleUpdatePreview)
	v1.Post("/previews/:uuid/regenerate", controllers.HandleRegeneratePreview)
	v1.Post("/previews/:uuid/slug", controllers.HandleEnsureSlug)
	v1.Post("/previews/:uuid/unpublish", controllers.HandleUnpublishPreview)
	v1.Post("/previews/:uuid/publish", controllers.HandleRepublishPreview)
	v1.Delete("/previews/:uuid", controllers.HandleDeletePreview)

	v1.Post("/checkout", controllers.HandleCheckout)

	v1.Get("/account", controllers.HandleGetAccount)
	v1.Get("/credits", controllers.HandleGetCredits)
	v1.Get("/payments", controllers.HandleListPayments)
}
