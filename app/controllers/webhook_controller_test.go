package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexfalanx/wevibecode/internal/pkg/payments"
)

const testWebhookSecret = "whsec_controller_test"

func newWebhookTestApp(t *testing.T) *fiber.App {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)

	// Signature and parse failures are decided before any storage access,
	// so the service needs no repository here.
	SetPaymentService(payments.NewService(nil, nil, nil))

	app := fiber.New()
	app.Post("/webhooks/payment", HandlePaymentWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, signature string) (*http.Response, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	return resp, decoded
}

func TestHandlePaymentWebhook_MissingSignature(t *testing.T) {
	app := newWebhookTestApp(t)

	resp, body := postWebhook(t, app, []byte(`{}`), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestHandlePaymentWebhook_WrongSecret(t *testing.T) {
	app := newWebhookTestApp(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	signature := payments.SignWebhookPayload(payload, "whsec_other", time.Now())

	resp, body := postWebhook(t, app, payload, signature)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestHandlePaymentWebhook_StaleTimestamp(t *testing.T) {
	app := newWebhookTestApp(t)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	signature := payments.SignWebhookPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	resp, body := postWebhook(t, app, payload, signature)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestHandlePaymentWebhook_UnparsablePayload(t *testing.T) {
	app := newWebhookTestApp(t)

	payload := []byte(`this is not json`)
	signature := payments.SignWebhookPayload(payload, testWebhookSecret, time.Now())

	resp, body := postWebhook(t, app, payload, signature)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestIsWebhookRejection(t *testing.T) {
	assert.True(t, isWebhookRejection(payments.ErrSignatureMismatch))
	assert.True(t, isWebhookRejection(payments.ErrSignatureExpired))
	assert.True(t, isWebhookRejection(payments.ErrSignatureHeaderMalformed))

	var parseErr error
	_, parseErr = payments.ParseWebhookEvent([]byte(`{`))
	require.Error(t, parseErr)
	assert.True(t, isWebhookRejection(parseErr))

	assert.False(t, isWebhookRejection(errors.New("database gone")))
	assert.False(t, isWebhookRejection(nil))
}
