package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com"

// StripeClient talks to the hosted checkout API. Only the two calls the
// ledger needs are implemented: creating a session and re-reading its status.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewStripeClientFromEnv builds a client from STRIPE_* environment variables.
func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCheckoutInput carries everything needed to open one hosted checkout.
type CreateCheckoutInput struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	PreviewUUID string
	UserID      uint
}

type stripeSessionPayload struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

// CreateCheckoutSession opens a hosted checkout carrying the preview and user
// identifiers as metadata so the webhook can find its way back.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if in.AmountCents <= 0 {
		return nil, fmt.Errorf("invalid checkout amount: %d", in.AmountCents)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", in.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.ProductName)
	form.Set("metadata[preview_uuid]", in.PreviewUUID)
	form.Set("metadata[user_id]", strconv.FormatUint(uint64(in.UserID), 10))
	// The intent inherits the metadata so payment_intent.* events stay
	// attributable too.
	form.Set("payment_intent_data[metadata][preview_uuid]", in.PreviewUUID)
	form.Set("payment_intent_data[metadata][user_id]", strconv.FormatUint(uint64(in.UserID), 10))

	payload, err := c.postForm(ctx, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	return payload.toSession(), nil
}

// GetCheckoutSession re-reads a session to learn whether it is still open.
func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.APIBaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	payload, err := c.doSessionRequest(req)
	if err != nil {
		return nil, err
	}
	return payload.toSession(), nil
}

func (c *StripeClient) postForm(ctx context.Context, path string, form url.Values) (*stripeSessionPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.doSessionRequest(req)
}

func (c *StripeClient) doSessionRequest(req *http.Request) (*stripeSessionPayload, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("checkout provider returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload stripeSessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if payload.ID == "" {
		return nil, errors.New("checkout session response is missing an id")
	}
	return &payload, nil
}

func (p *stripeSessionPayload) toSession() *CheckoutSession {
	return &CheckoutSession{
		ID:              p.ID,
		URL:             p.URL,
		PaymentIntentID: p.PaymentIntent,
		Status:          p.Status,
		AmountCents:     p.AmountTotal,
		Currency:        p.Currency,
	}
}

// webhookEnvelope is the raw wire shape of one webhook notification.
type webhookEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParseError marks a webhook payload the codec could not understand.
type ParseError struct {
	msg string
	err error
}

func (e *ParseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *ParseError) Unwrap() error { return e.err }

// ParseWebhookEvent normalizes a raw webhook payload. For checkout.session.*
// events the object id is the session id; for payment_intent.* events it is
// the intent id.
func ParseWebhookEvent(raw []byte) (*Event, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &ParseError{msg: "failed to decode webhook payload", err: err}
	}
	if envelope.Type == "" || envelope.Data.Object.ID == "" {
		return nil, &ParseError{msg: "webhook payload is missing type or object id"}
	}

	ev := &Event{
		ID:          envelope.ID,
		Kind:        EventKind(envelope.Type),
		PreviewUUID: envelope.Data.Object.Metadata["preview_uuid"],
	}
	if raw := envelope.Data.Object.Metadata["user_id"]; raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			ev.UserID = uint(id)
		}
	}

	if strings.HasPrefix(envelope.Type, "checkout.session.") {
		ev.SessionID = envelope.Data.Object.ID
		ev.PaymentIntentID = envelope.Data.Object.PaymentIntent
	} else {
		ev.PaymentIntentID = envelope.Data.Object.ID
	}
	return ev, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
