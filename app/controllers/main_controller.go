package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/payments"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
	"github.com/sujit-baniya/flash"
)

// HandleHome renders the landing page.
func HandleHome(c *fiber.Ctx) error {
	return renderPage(c, "index", fiber.Map{
		"Title": "Generate your website",
		"Flash": flash.Get(c),
	})
}

// HandlePricing renders the pricing page with the current publish fee.
func HandlePricing(c *fiber.Ctx) error {
	cents := payments.PublishPriceCents()
	return renderPage(c, "pricing", fiber.Map{
		"Title":        "Pricing",
		"PublishPrice": fmt.Sprintf("%d.%02d", cents/100, cents%100),
	})
}

// HandleDashboard renders the logged-in overview with the user's previews.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	previews, err := repo.GetByUserID(userCtx.UserID, 0, previewPageSize)
	if err != nil {
		previews = nil
	}

	settings, err := repository.GetGlobalFactory().GetUserRepository().GetSettings(userCtx.UserID)
	creditsRemaining := uint(0)
	if err == nil {
		creditsRemaining = settings.CreditsRemaining
	}

	return renderPage(c, "dashboard", fiber.Map{
		"Title":            "Dashboard",
		"Previews":         previews,
		"CreditsRemaining": creditsRemaining,
		"Flash":            flash.Get(c),
	})
}

// HandleEditor renders the site editor for one preview.
func HandleEditor(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	preview, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}
	if !preview.OwnedBy(userCtx.UserID) {
		return fiber.ErrNotFound
	}

	return renderPage(c, "editor", fiber.Map{
		"Title":   "Edit: " + preview.Title,
		"Preview": preview,
	})
}
