package controllers

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/credits"
	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/generator"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
	"github.com/alexfalanx/wevibecode/internal/pkg/validation"
)

var (
	generatorSvc     *generator.Service
	generatorSvcOnce sync.Once
)

func getGeneratorService() *generator.Service {
	generatorSvcOnce.Do(func() {
		generatorSvc = generator.NewServiceFromEnv()
	})
	return generatorSvc
}

// SetGeneratorService overrides the generator, used by tests.
func SetGeneratorService(svc *generator.Service) {
	generatorSvcOnce.Do(func() {})
	generatorSvc = svc
}

// GenerateRequest is the JSON body of POST /api/v1/generate.
type GenerateRequest struct {
	Prompt         string `json:"prompt" validate:"required,min=10,max=2000"`
	GenerationType string `json:"generation_type" validate:"omitempty,oneof=landing business portfolio blog"`
	WithImages     bool   `json:"with_images"`
}

// HandleGenerate runs one website generation for the logged-in user.
// Order matters: the balance precheck rejects obviously broke accounts
// early, the providers do the expensive work, the result is stored, and only
// then is the charge applied with the preview UUID as idempotency key. A
// provider failure therefore never debits anything.
func HandleGenerate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", "invalid JSON body")
	}
	if err := validation.Struct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}
	if req.GenerationType == "" {
		req.GenerationType = models.GenerationTypeLanding
	}

	cost := credits.GenerationCost(req.WithImages)
	ledger := credits.NewLedgerFromDB(database.GetDB())

	balance, err := ledger.Balance(c.Context(), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to check balance")
	}
	if balance < cost {
		return errorJSON(c, fiber.StatusPaymentRequired, "insufficient_credits", "not enough credits for this generation")
	}

	site, err := getGeneratorService().Generate(c.Context(), generator.Request{
		Prompt:         req.Prompt,
		GenerationType: req.GenerationType,
		WithImages:     req.WithImages,
	})
	if err != nil {
		if errors.Is(err, generator.ErrUpstreamProvider) {
			return errorJSON(c, fiber.StatusBadGateway, "upstream_provider_error", "generation provider failed, no credits were used")
		}
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	preview := models.NewPreview(userCtx.UserID, req.Prompt, req.GenerationType)
	preview.Title = site.Title
	preview.HTML = site.HTML
	preview.CSS = site.CSS
	preview.JS = site.JS

	previewRepo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := previewRepo.Create(preview); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to store preview")
	}

	action := models.CreditActionGenerateWebsite
	if err := ledger.Charge(c.Context(), userCtx.UserID, action, cost, preview.UUID, req.GenerationType); err != nil {
		// The precheck raced with another request. The stored preview is
		// removed so nothing exists the user did not pay for.
		if delErr := previewRepo.Delete(preview.ID); delErr != nil {
			log.Errorf("failed to roll back preview %s after charge failure: %v", preview.UUID, delErr)
		}
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return errorJSON(c, fiber.StatusPaymentRequired, "insufficient_credits", "not enough credits for this generation")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to charge credits")
	}

	newBalance, _ := ledger.Balance(c.Context(), userCtx.UserID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"preview": fiber.Map{
			"uuid":            preview.UUID,
			"title":           preview.Title,
			"generation_type": preview.GenerationType,
			"payment_status":  preview.PaymentStatus,
			"created_at":      preview.CreatedAt,
		},
		"credits_used":      cost,
		"credits_remaining": newBalance,
	})
}

// RegenerateRequest is the JSON body of POST /api/v1/previews/:uuid/regenerate.
// An empty prompt reuses the one the preview was created with.
type RegenerateRequest struct {
	Prompt string `json:"prompt" validate:"omitempty,min=10,max=2000"`
}

// HandleRegeneratePreview re-runs a text-only generation for an existing
// preview and replaces its content in place. Same ordering rules as
// HandleGenerate; a failed charge restores the previous content.
func HandleRegeneratePreview(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}

	var req RegenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "validation_error", "invalid JSON body")
		}
		if err := validation.Struct(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
		}
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = preview.GenerationPrompt
	}

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balance, err := ledger.Balance(c.Context(), userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to check balance")
	}
	if balance < credits.CostRegenerate {
		return errorJSON(c, fiber.StatusPaymentRequired, "insufficient_credits", "not enough credits for this regeneration")
	}

	site, err := getGeneratorService().Generate(c.Context(), generator.Request{
		Prompt:         prompt,
		GenerationType: preview.GenerationType,
	})
	if err != nil {
		if errors.Is(err, generator.ErrUpstreamProvider) {
			return errorJSON(c, fiber.StatusBadGateway, "upstream_provider_error", "generation provider failed, no credits were used")
		}
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	prevHTML, prevCSS, prevJS := preview.HTML, preview.CSS, preview.JS
	previewRepo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := previewRepo.UpdateContent(preview.ID, site.HTML, site.CSS, site.JS); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to store preview")
	}

	chargeKey := "regen-" + uuid.NewString()
	if err := ledger.Charge(c.Context(), userCtx.UserID, models.CreditActionRegenerate, credits.CostRegenerate, chargeKey, preview.UUID); err != nil {
		if restoreErr := previewRepo.UpdateContent(preview.ID, prevHTML, prevCSS, prevJS); restoreErr != nil {
			log.Errorf("failed to restore preview %s after charge failure: %v", preview.UUID, restoreErr)
		}
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return errorJSON(c, fiber.StatusPaymentRequired, "insufficient_credits", "not enough credits for this regeneration")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to charge credits")
	}

	newBalance, _ := ledger.Balance(c.Context(), userCtx.UserID)
	return c.JSON(fiber.Map{
		"preview":           fiber.Map{"uuid": preview.UUID, "title": site.Title},
		"credits_used":      credits.CostRegenerate,
		"credits_remaining": newBalance,
	})
}
