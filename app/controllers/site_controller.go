package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/repository"
)

// HandlePublishedSite serves a published site straight from the database.
// Object storage is a mirror, not the source of truth, so a site stays up
// even when the bucket is unreachable.
func HandlePublishedSite(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return fiber.ErrNotFound
	}

	repo := repository.GetGlobalFactory().GetPreviewRepository()
	preview, err := repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}

	asset := c.Params("*")
	switch asset {
	case "", "index.html":
		c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
		return c.SendString(absoluteAssetPaths(preview.HTML, slug))
	case "style.css":
		c.Set(fiber.HeaderContentType, "text/css; charset=utf-8")
		return c.SendString(preview.CSS)
	case "app.js":
		c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
		return c.SendString(preview.JS)
	}
	return fiber.ErrNotFound
}

// absoluteAssetPaths rewrites the relative stylesheet and script references
// so the page works when served from /s/:slug without a trailing slash.
func absoluteAssetPaths(html, slug string) string {
	base := "/s/" + slug + "/"
	return strings.NewReplacer(
		`href="style.css"`, `href="`+base+`style.css"`,
		`src="app.js"`, `src="`+base+`app.js"`,
	).Replace(html)
}
