package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/credits"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/locale"
	"github.com/alexfalanx/wevibecode/internal/pkg/middleware"
	"github.com/alexfalanx/wevibecode/internal/pkg/session"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
)

// HandleGetAccount returns account details plus the current credit balance.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, "not_found", "user not found")
	}
	settings, err := repo.GetSettings(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load user settings")
	}

	return c.JSON(fiber.Map{
		"id":                 account.ID,
		"username":           account.Name,
		"email":              account.Email,
		"status":             account.Status,
		"plan":               settings.Plan,
		"preferred_language": settings.PreferredLanguage,
		"credits_remaining":  settings.CreditsRemaining,
		"is_admin":           account.Role == models.ROLE_ADMIN,
		"created_at":         account.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleGetCredits returns the caller's balance and recent ledger entries.
func HandleGetCredits(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balance, err := ledger.Balance(c.Context(), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load balance")
	}

	var entries []models.CreditsLogEntry
	if err := database.GetDB().
		Where("user_id = ?", userCtx.UserID).
		Order("created_at DESC").
		Limit(50).
		Find(&entries).Error; err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load credit history")
	}

	history := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		history = append(history, fiber.Map{
			"action":       e.Action,
			"credits_used": e.CreditsUsed,
			"details":      e.Details,
			"created_at":   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{
		"credits_remaining": balance,
		"history":           history,
	})
}

// HandleSwitchLanguage persists a locale choice and redirects back into the
// newly selected locale. Works for anonymous visitors too via the cookie.
func HandleSwitchLanguage(c *fiber.Ctx) error {
	l, ok := locale.Parse(c.FormValue("locale", c.Query("locale")))
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", "unsupported locale")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.LocaleCookie,
		Value:    string(l),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn {
		repo := repository.GetGlobalFactory().GetUserRepository()
		if err := repo.SetPreferredLanguage(userCtx.UserID, string(l)); err != nil {
			log.Errorf("failed to store language preference for user %d: %v", userCtx.UserID, err)
		}
		_ = session.SetSessionValue(c, usercontext.KeyUserLanguage, string(l))
	}

	target := c.FormValue("redirect", "/"+string(l)+"/")
	return c.Redirect(target, fiber.StatusSeeOther)
}

// HandleListPayments returns the caller's payment history.
func HandleListPayments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * previewPageSize

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	paymentList, err := repo.GetByUserID(userCtx.UserID, offset, previewPageSize)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load payments")
	}

	items := make([]fiber.Map, 0, len(paymentList))
	for _, p := range paymentList {
		items = append(items, fiber.Map{
			"uuid":         p.UUID,
			"amount_cents": p.AmountCents,
			"currency":     p.Currency,
			"status":       p.Status,
			"completed_at": p.CompletedAt,
			"created_at":   p.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"payments": items, "page": page})
}
