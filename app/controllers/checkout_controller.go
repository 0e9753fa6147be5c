package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/alexfalanx/wevibecode/internal/pkg/database"
	"github.com/alexfalanx/wevibecode/internal/pkg/env"
	"github.com/alexfalanx/wevibecode/internal/pkg/payments"
	"github.com/alexfalanx/wevibecode/internal/pkg/sitepublish"
	"github.com/alexfalanx/wevibecode/internal/pkg/usercontext"
	"github.com/alexfalanx/wevibecode/internal/pkg/validation"
)

var (
	paymentSvc      *payments.Service
	sitePublisher   *sitepublish.Client
	paymentInitOnce sync.Once
)

// siteRemover is the unpublish-side surface of the publish client.
type siteRemover interface {
	RemoveSite(ctx context.Context, slug string) error
}

func initPaymentStack() {
	paymentInitOnce.Do(func() {
		sitePublisher = sitepublish.NewFromEnv()
		var publisher payments.SitePublisher
		if sitePublisher != nil {
			publisher = sitePublisher
		}
		paymentSvc = payments.NewServiceFromDB(database.GetDB(), publisher)
	})
}

func getPaymentService() *payments.Service {
	initPaymentStack()
	return paymentSvc
}

func getSitePublisher() payments.SitePublisher {
	initPaymentStack()
	if sitePublisher == nil {
		return nil
	}
	return sitePublisher
}

func getSiteRemover() siteRemover {
	initPaymentStack()
	if sitePublisher == nil {
		return nil
	}
	return sitePublisher
}

// SetPaymentService overrides the payment stack, used by tests.
func SetPaymentService(svc *payments.Service) {
	paymentInitOnce.Do(func() {})
	paymentSvc = svc
}

// CheckoutRequest is the JSON body of POST /api/v1/checkout.
type CheckoutRequest struct {
	PreviewUUID string `json:"preview_uuid" validate:"required,uuid4"`
}

// HandleCheckout opens a hosted checkout session for publishing a preview.
func HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", "invalid JSON body")
	}
	if err := validation.Struct(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", err.Error())
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000")), "/")
	successURL := base + "/en/dashboard?payment=success"
	cancelURL := base + "/en/dashboard?payment=cancelled"

	session, err := getPaymentService().OpenCheckout(c.Context(), userCtx.UserID, req.PreviewUUID, successURL, cancelURL)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrAlreadyPaid):
			return errorJSON(c, fiber.StatusBadRequest, "already_paid", "this site is already paid for")
		case errors.Is(err, payments.ErrPreviewNotFound):
			return errorJSON(c, fiber.StatusNotFound, "not_found", "preview not found")
		default:
			return errorJSON(c, fiber.StatusBadGateway, "upstream_provider_error", "failed to open checkout")
		}
	}

	return c.JSON(fiber.Map{
		"checkout_url": session.URL,
		"session_id":   session.ID,
		"amount_cents": session.AmountCents,
		"currency":     session.Currency,
	})
}
