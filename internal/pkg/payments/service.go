package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
	"github.com/alexfalanx/wevibecode/internal/pkg/env"
)

const defaultPublishPriceCents = 990

var (
	// ErrAlreadyPaid is returned when a checkout is requested for a preview
	// whose publish fee is already settled.
	ErrAlreadyPaid = errors.New("preview is already paid")
	// ErrPreviewNotFound is returned when the checkout target does not exist
	// or belongs to another user.
	ErrPreviewNotFound = errors.New("preview not found")
)

// CheckoutProvider is the outbound surface of the hosted checkout API.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// SitePublisher is invoked after a payment completes to push the site to
// public storage. Failures are logged, never surfaced to the provider.
type SitePublisher interface {
	PublishPreview(ctx context.Context, preview *models.Preview) error
}

// Service owns checkout creation and webhook reconciliation.
type Service struct {
	repo      Repository
	provider  CheckoutProvider
	publisher SitePublisher

	webhookSecret string
	priceCents    int64
	currency      string
}

// NewService creates a payment service from injected collaborators. The
// publisher may be nil when site publishing is disabled.
func NewService(repo Repository, provider CheckoutProvider, publisher SitePublisher) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		publisher:     publisher,
		webhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		priceCents:    PublishPriceCents(),
		currency:      strings.ToLower(env.GetEnv("PUBLISH_PRICE_CURRENCY", "eur")),
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, publisher SitePublisher) *Service {
	return NewService(NewRepository(db), NewStripeClientFromEnv(), publisher)
}

// PublishPriceCents reads the flat publish fee from the environment.
func PublishPriceCents() int64 {
	raw := env.GetEnv("PUBLISH_PRICE_CENTS", "")
	if raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			return v
		}
		log.Warnf("[Payments] invalid PUBLISH_PRICE_CENTS %q, using default", raw)
	}
	return defaultPublishPriceCents
}

// WebhookSecret exposes the configured signing secret for the HTTP layer.
func (s *Service) WebhookSecret() string {
	return s.webhookSecret
}

// OpenCheckout returns a checkout session URL for the preview's publish fee.
// If a pending payment already has an open provider session it is reused so a
// double-clicked pay button never creates two charges.
func (s *Service) OpenCheckout(ctx context.Context, userID uint, previewUUID, successURL, cancelURL string) (*CheckoutSession, error) {
	preview, err := s.repo.FindPreviewByUUID(previewUUID)
	if err != nil {
		return nil, err
	}
	if preview == nil || !preview.OwnedBy(userID) {
		return nil, ErrPreviewNotFound
	}
	if preview.IsPaid() {
		return nil, ErrAlreadyPaid
	}

	if pending, err := s.repo.FindPendingPaymentForPreview(preview.ID); err != nil {
		return nil, err
	} else if pending != nil {
		session, err := s.provider.GetCheckoutSession(ctx, pending.ProviderSessionID)
		if err != nil {
			// The pending session may still be open and payable. Without a
			// positive answer from the provider we must not release it, or a
			// payment made on it would later find no pending row to complete.
			return nil, fmt.Errorf("re-reading pending session %s: %w", pending.ProviderSessionID, err)
		}
		if session.Open() {
			return session, nil
		}
		// Provider confirmed the session is no longer payable; release it
		// before opening a fresh one.
		if err := s.repo.FailPayment(pending); err != nil {
			return nil, err
		}
	}

	title := preview.Title
	if title == "" {
		title = "Website"
	}
	session, err := s.provider.CreateCheckoutSession(ctx, CreateCheckoutInput{
		AmountCents: s.priceCents,
		Currency:    s.currency,
		ProductName: fmt.Sprintf("Publish: %s", title),
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		PreviewUUID: preview.UUID,
		UserID:      userID,
	})
	if err != nil {
		return nil, err
	}

	payment := models.NewPayment(userID, preview.ID, session.ID, session.PaymentIntentID, s.priceCents, s.currency)
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePreviewPaymentStatus(preview.ID, models.PreviewPaymentUnpaid, models.PreviewPaymentPending); err != nil {
		log.Errorf("[Payments] failed to mark preview %s pending: %v", preview.UUID, err)
	}
	return session, nil
}

// HandleWebhook verifies, records and reconciles one raw webhook delivery.
// The returned duplicate flag is true when this event id was seen before.
// A nil error means the delivery should be acknowledged with 200; signature
// and parse failures are the only cases that warrant a 400.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (duplicate bool, err error) {
	if err := VerifyWebhookSignature(payload, signatureHeader, s.webhookSecret, DefaultSignatureTolerance, time.Now()); err != nil {
		return false, err
	}

	event, err := ParseWebhookEvent(payload)
	if err != nil {
		return false, err
	}

	row := &models.PaymentWebhookEvent{
		Provider:        ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Kind),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	}
	created, err := s.repo.RecordWebhookEvent(row)
	if err != nil {
		return false, err
	}
	if !created {
		return true, nil
	}

	procErr := s.Reconcile(ctx, event)
	procMsg := ""
	if procErr != nil {
		procMsg = procErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(row.ID, procMsg); err != nil {
		log.Errorf("[Payments] failed to mark webhook %s processed: %v", event.ID, err)
	}
	return false, procErr
}

// Reconcile applies one normalized event to the payment it refers to.
// Events that match no payment, or whose (status, kind) pair is not in the
// transition table, are logged and dropped without error so the provider
// stops retrying them.
func (s *Service) Reconcile(ctx context.Context, event *Event) error {
	_ = ctx
	if !KnownEventKind(string(event.Kind)) {
		log.Infof("[Payments] ignoring unhandled event type %s (%s)", event.Kind, event.ID)
		return nil
	}

	payment, err := s.findPaymentForEvent(event)
	if err != nil {
		return err
	}
	if payment == nil {
		log.Warnf("[Payments] dropping event %s (%s): no matching payment", event.ID, event.Kind)
		return nil
	}

	t, ok := lookupTransition(payment.Status, event.Kind)
	if !ok {
		log.Warnf("[Payments] dropping event %s: payment %s is %s, no transition for %s",
			event.ID, payment.UUID, payment.Status, event.Kind)
		return nil
	}

	switch t.NextStatus {
	case models.PaymentStatusCompleted:
		if err := s.repo.CompletePaymentAndMarkPaid(payment); err != nil {
			return fmt.Errorf("failed to complete payment %s: %w", payment.UUID, err)
		}
		log.Infof("[Payments] payment %s completed via %s", payment.UUID, event.Kind)
		if t.Publish {
			s.publishAfterCompletion(ctx, payment)
		}
	case models.PaymentStatusFailed:
		if err := s.repo.FailPayment(payment); err != nil {
			return fmt.Errorf("failed to fail payment %s: %w", payment.UUID, err)
		}
		log.Infof("[Payments] payment %s failed via %s", payment.UUID, event.Kind)
	}
	return nil
}

func (s *Service) findPaymentForEvent(event *Event) (*models.Payment, error) {
	if event.SessionID != "" {
		if payment, err := s.repo.FindPaymentBySessionID(event.SessionID); err != nil || payment != nil {
			return payment, err
		}
	}
	if event.PaymentIntentID != "" {
		return s.repo.FindPaymentByIntentID(event.PaymentIntentID)
	}
	return nil, nil
}

// publishAfterCompletion pushes the paid site to public storage. Runs after
// the transaction committed; a publish failure must not fail the webhook, the
// site stays serveable from the database either way.
func (s *Service) publishAfterCompletion(ctx context.Context, payment *models.Payment) {
	if s.publisher == nil {
		return
	}
	preview, err := s.repo.FindPreviewByID(payment.PreviewID)
	if err != nil || preview == nil {
		log.Errorf("[Payments] cannot load preview %d for publish: %v", payment.PreviewID, err)
		return
	}
	if err := s.publisher.PublishPreview(ctx, preview); err != nil {
		log.Errorf("[Payments] publish of preview %s failed: %v", preview.UUID, err)
	}
}
