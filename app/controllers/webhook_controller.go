package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/alexfalanx/wevibecode/internal/pkg/payments"
)

// HandlePaymentWebhook receives provider notifications. The contract with
// the provider: 400 only for signature or parse failures, 200 for everything
// else including duplicates and events that match nothing, otherwise the
// provider keeps retrying deliveries we will never act on.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	duplicate, err := getPaymentService().HandleWebhook(c.Context(), payload, signature)
	if err != nil {
		if isWebhookRejection(err) {
			log.Warnf("rejected payment webhook: %v", err)
			return errorJSON(c, fiber.StatusBadRequest, "invalid_signature", "webhook verification failed")
		}
		// Processing failed after the event was recorded. Acknowledge anyway;
		// the stored event row carries the error for manual replay.
		log.Errorf("payment webhook processing failed: %v", err)
	}

	resp := fiber.Map{"received": true}
	if duplicate {
		resp["duplicate"] = true
	}
	return c.JSON(resp)
}

func isWebhookRejection(err error) bool {
	return errors.Is(err, payments.ErrSignatureMismatch) ||
		errors.Is(err, payments.ErrSignatureExpired) ||
		errors.Is(err, payments.ErrSignatureHeaderMalformed) ||
		isParseError(err)
}

func isParseError(err error) bool {
	var target *payments.ParseError
	return errors.As(err, &target)
}
