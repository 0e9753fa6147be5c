package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/app/repository"
	"github.com/alexfalanx/wevibecode/internal/pkg/shortener"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
	"github.com/alexfalanx/wevibecode/internal/pkg/validation"
)

const previewPageSize = 20

// HandleListPreviews returns a page of the caller's previews.
func HandleListPreviews(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * previewPageSize

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	previews, err := repo.GetByUserID(userCtx.UserID, offset, previewPageSize)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load previews")
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to count previews")
	}

	items := make([]fiber.Map, 0, len(previews))
	for i := range previews {
		items = append(items, previewSummary(&previews[i]))
	}
	return c.JSON(fiber.Map{
		"previews": items,
		"page":     page,
		"total":    total,
	})
}

// HandleGetPreview returns one preview with full content.
func HandleGetPreview(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}

	body := previewSummary(preview)
	body["generation_prompt"] = preview.GenerationPrompt
	body["html"] = preview.HTML
	body["css"] = preview.CSS
	body["js"] = preview.JS
	return c.JSON(fiber.Map{"preview": body})
}

// UpdatePreviewRequest is the JSON body of PUT /api/v1/previews/:uuid.
type UpdatePreviewRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
	HTML  string `json:"html" validate:"required"`
	CSS   string `json:"css"`
	JS    string `json:"js"`
}

// HandleUpdatePreview stores manual edits to a preview's content.
func HandleUpdatePreview(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}

	var req UpdatePreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", "invalid JSON body")
	}
	if err := validation.Struct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := repo.UpdateContent(preview.ID, req.HTML, req.CSS, req.JS); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to save preview")
	}
	if req.Title != "" && req.Title != preview.Title {
		preview.Title = req.Title
		if err := repo.Update(preview); err != nil {
			log.Errorf("failed to update title of preview %s: %v", preview.UUID, err)
		}
	}

	return c.JSON(fiber.Map{"status": "saved"})
}

// HandleEnsureSlug assigns the public slug ahead of checkout so the success
// page can link to the final site address.
func HandleEnsureSlug(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}

	if preview.Slug == "" {
		slug, err := shortener.SiteSlug(preview.Title)
		if err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to generate slug")
		}
		repo := repository.GetGlobalFactory().GetPreviewRepository()
		if err := repo.SetSlug(preview.ID, slug); err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to store slug")
		}
		preview.Slug = slug
	}

	return c.JSON(fiber.Map{"slug": preview.Slug})
}

// HandleUnpublishPreview takes a published site offline. Payment state stays
// settled, republishing does not require paying again.
func HandleUnpublishPreview(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}
	if !preview.IsPublished {
		return c.JSON(fiber.Map{"status": "not_published"})
	}

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := repo.Unpublish(preview.ID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to unpublish")
	}

	if remover := getSiteRemover(); remover != nil {
		if err := remover.RemoveSite(c.Context(), preview.Slug); err != nil {
			log.Errorf("failed to remove published objects for %s: %v", preview.Slug, err)
		}
	}
	return c.JSON(fiber.Map{"status": "unpublished"})
}

// HandleRepublishPreview puts an already-paid site back online.
func HandleRepublishPreview(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}
	if !preview.IsPaid() {
		return errorJSON(c, fiber.StatusBadRequest, "not_paid", "site must be paid before publishing")
	}
	if preview.IsPublished {
		return c.JSON(fiber.Map{"status": "published", "slug": preview.Slug})
	}

	preview.IsPublished = true
	repo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := repo.Update(preview); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to publish")
	}

	if publisher := getSitePublisher(); publisher != nil {
		if err := publisher.PublishPreview(c.Context(), preview); err != nil {
			log.Errorf("failed to push site %s to storage: %v", preview.Slug, err)
		}
	}
	return c.JSON(fiber.Map{"status": "published", "slug": preview.Slug})
}

// HandleDeletePreview soft-deletes an unpublished preview.
func HandleDeletePreview(c *fiber.Ctx) error {
	preview, ok := loadOwnedPreview(c)
	if !ok {
		return nil
	}
	if preview.IsPublished {
		return errorJSON(c, fiber.StatusBadRequest, "still_published", "unpublish the site before deleting it")
	}

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	if err := repo.Delete(preview.ID); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to delete preview")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// loadOwnedPreview resolves :uuid to a preview owned by the caller and writes
// the error response itself when that fails. Foreign and missing previews are
// indistinguishable to the client.
func loadOwnedPreview(c *fiber.Ctx) (*models.Preview, bool) {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	preview, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = errorJSON(c, fiber.StatusNotFound, "not_found", "preview not found")
		} else {
			_ = errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "failed to load preview")
		}
		return nil, false
	}
	if !preview.OwnedBy(userCtx.UserID) {
		_ = errorJSON(c, fiber.StatusNotFound, "not_found", "preview not found")
		return nil, false
	}
	return preview, true
}

func previewSummary(p *models.Preview) fiber.Map {
	return fiber.Map{
		"uuid":            p.UUID,
		"title":           p.Title,
		"generation_type": p.GenerationType,
		"payment_status":  p.PaymentStatus,
		"is_published":    p.IsPublished,
		"slug":            p.Slug,
		"published_at":    p.PublishedAt,
		"created_at":      p.CreatedAt,
		"updated_at":      p.UpdatedAt,
	}
}
