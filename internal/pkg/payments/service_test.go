package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexfalanx/wevibecode/app/models"
)

type fakeRepository struct {
	payments map[string]*models.Payment // keyed by session id
	previews map[string]*models.Preview // keyed by uuid
	events   map[string]*models.PaymentWebhookEvent
	nextID   uint

	failPaymentCalls     int
	completePaymentCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		payments: map[string]*models.Payment{},
		previews: map[string]*models.Preview{},
		events:   map[string]*models.PaymentWebhookEvent{},
	}
}

func (f *fakeRepository) addPreview(p *models.Preview) *models.Preview {
	f.nextID++
	p.ID = f.nextID
	f.previews[p.UUID] = p
	return p
}

func (f *fakeRepository) CreatePayment(payment *models.Payment) error {
	f.nextID++
	payment.ID = f.nextID
	f.payments[payment.ProviderSessionID] = payment
	return nil
}

func (f *fakeRepository) FindPaymentBySessionID(sessionID string) (*models.Payment, error) {
	return f.payments[sessionID], nil
}

func (f *fakeRepository) FindPaymentByIntentID(intentID string) (*models.Payment, error) {
	if intentID == "" {
		return nil, nil
	}
	for _, p := range f.payments {
		if p.ProviderIntentID == intentID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) FindPendingPaymentForPreview(previewID uint) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.PreviewID == previewID && p.Status == models.PaymentStatusPending {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) CompletePaymentAndMarkPaid(payment *models.Payment) error {
	f.completePaymentCalls++
	if payment.Status != models.PaymentStatusPending {
		return nil
	}
	now := time.Now()
	payment.Status = models.PaymentStatusCompleted
	payment.CompletedAt = &now
	for _, preview := range f.previews {
		if preview.ID == payment.PreviewID {
			preview.PaymentStatus = models.PreviewPaymentPaid
			preview.IsPublished = true
			preview.PublishedAt = &now
		}
	}
	return nil
}

func (f *fakeRepository) FailPayment(payment *models.Payment) error {
	f.failPaymentCalls++
	if payment.Status != models.PaymentStatusPending {
		return nil
	}
	payment.Status = models.PaymentStatusFailed
	for _, preview := range f.previews {
		if preview.ID == payment.PreviewID && preview.PaymentStatus == models.PreviewPaymentPending {
			preview.PaymentStatus = models.PreviewPaymentUnpaid
		}
	}
	return nil
}

func (f *fakeRepository) FindPreviewByUUID(uuid string) (*models.Preview, error) {
	return f.previews[uuid], nil
}

func (f *fakeRepository) FindPreviewByID(id uint) (*models.Preview, error) {
	for _, p := range f.previews {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) UpdatePreviewPaymentStatus(previewID uint, from, to string) error {
	for _, p := range f.previews {
		if p.ID == previewID && p.PaymentStatus == from {
			p.PaymentStatus = to
		}
	}
	return nil
}

func (f *fakeRepository) RecordWebhookEvent(event *models.PaymentWebhookEvent) (bool, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if _, exists := f.events[key]; exists {
		return false, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.events[key] = event
	return true, nil
}

func (f *fakeRepository) MarkWebhookProcessed(eventID uint, processingErr string) error {
	for _, e := range f.events {
		if e.ID == eventID {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingErr
		}
	}
	return nil
}

type fakeProvider struct {
	sessions map[string]*CheckoutSession
	created  int
	getErr   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*CheckoutSession{}}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, in CreateCheckoutInput) (*CheckoutSession, error) {
	f.created++
	session := &CheckoutSession{
		ID:              fmt.Sprintf("cs_test_%d", f.created),
		URL:             "https://checkout.example/pay",
		PaymentIntentID: fmt.Sprintf("pi_test_%d", f.created),
		Status:          "open",
		AmountCents:     in.AmountCents,
		Currency:        in.Currency,
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return session, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishPreview(_ context.Context, preview *models.Preview) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, preview.UUID)
	return nil
}

func newTestService(repo Repository, provider CheckoutProvider, publisher SitePublisher) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		publisher:     publisher,
		webhookSecret: "whsec_test",
		priceCents:    990,
		currency:      "eur",
	}
}

func TestOpenCheckout_CreatesPendingPayment(t *testing.T) {
	repo := newFakeRepository()
	provider := newFakeProvider()
	svc := newTestService(repo, provider, nil)

	preview := repo.addPreview(models.NewPreview(7, "a bakery site", models.GenerationTypeBusiness))

	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/success", "https://app/cancel")
	require.NoError(t, err)
	assert.True(t, session.Open())
	assert.Equal(t, int64(990), session.AmountCents)

	payment := repo.payments[session.ID]
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, preview.ID, payment.PreviewID)
	assert.Equal(t, models.PreviewPaymentPending, preview.PaymentStatus)
}

func TestOpenCheckout_ReusesOpenPendingSession(t *testing.T) {
	repo := newFakeRepository()
	provider := newFakeProvider()
	svc := newTestService(repo, provider, nil)

	preview := repo.addPreview(models.NewPreview(7, "a bakery site", models.GenerationTypeBusiness))

	first, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.NoError(t, err)

	second, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, provider.created)
}

func TestOpenCheckout_ReplacesExpiredPendingSession(t *testing.T) {
	repo := newFakeRepository()
	provider := newFakeProvider()
	svc := newTestService(repo, provider, nil)

	preview := repo.addPreview(models.NewPreview(7, "a bakery site", models.GenerationTypeBusiness))

	first, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.NoError(t, err)
	provider.sessions[first.ID].Status = "expired"

	second, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.PaymentStatusFailed, repo.payments[first.ID].Status)
	assert.Equal(t, 2, provider.created)
}

func TestOpenCheckout_ProviderReadErrorKeepsPendingSession(t *testing.T) {
	repo := newFakeRepository()
	provider := newFakeProvider()
	svc := newTestService(repo, provider, nil)

	preview := repo.addPreview(models.NewPreview(7, "a bakery site", models.GenerationTypeBusiness))

	first, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.NoError(t, err)

	// The provider being unreachable says nothing about the session; the
	// pending payment must survive so a payment made on it still completes.
	provider.getErr = errors.New("provider unreachable")

	_, err = svc.OpenCheckout(context.Background(), 7, preview.UUID, "https://app/s", "https://app/c")
	require.Error(t, err)

	assert.Equal(t, models.PaymentStatusPending, repo.payments[first.ID].Status)
	assert.Equal(t, models.PreviewPaymentPending, preview.PaymentStatus)
	assert.Equal(t, 1, provider.created)
}

func TestOpenCheckout_Rejections(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, newFakeProvider(), nil)

	paid := repo.addPreview(models.NewPreview(7, "a paid site", models.GenerationTypeLanding))
	paid.PaymentStatus = models.PreviewPaymentPaid

	_, err := svc.OpenCheckout(context.Background(), 7, paid.UUID, "s", "c")
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = svc.OpenCheckout(context.Background(), 7, "missing-uuid", "s", "c")
	assert.ErrorIs(t, err, ErrPreviewNotFound)

	// Another user's preview looks like it does not exist.
	_, err = svc.OpenCheckout(context.Background(), 99, paid.UUID, "s", "c")
	assert.ErrorIs(t, err, ErrPreviewNotFound)
}

func checkoutCompletedPayload(eventID, sessionID, intentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"payment_intent":%q,"metadata":{"preview_uuid":"p-1","user_id":"7"}}}}`,
		eventID, sessionID, intentID))
}

func TestHandleWebhook_CompletesPaymentAndPublishes(t *testing.T) {
	repo := newFakeRepository()
	provider := newFakeProvider()
	publisher := &fakePublisher{}
	svc := newTestService(repo, provider, publisher)

	preview := repo.addPreview(models.NewPreview(7, "a bakery site", models.GenerationTypeBusiness))
	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "s", "c")
	require.NoError(t, err)

	payload := checkoutCompletedPayload("evt_1", session.ID, session.PaymentIntentID)
	header := SignWebhookPayload(payload, "whsec_test", time.Now())

	duplicate, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.False(t, duplicate)

	assert.Equal(t, models.PaymentStatusCompleted, repo.payments[session.ID].Status)
	assert.Equal(t, models.PreviewPaymentPaid, preview.PaymentStatus)
	assert.True(t, preview.IsPublished)
	assert.Equal(t, []string{preview.UUID}, publisher.published)
}

func TestHandleWebhook_DuplicateEventIsAcknowledged(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, newFakeProvider(), nil)

	preview := repo.addPreview(models.NewPreview(7, "site", models.GenerationTypeLanding))
	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "s", "c")
	require.NoError(t, err)

	payload := checkoutCompletedPayload("evt_dup", session.ID, session.PaymentIntentID)
	header := SignWebhookPayload(payload, "whsec_test", time.Now())

	_, err = svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)

	duplicate, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, 1, repo.completePaymentCalls)
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	svc := newTestService(newFakeRepository(), newFakeProvider(), nil)

	payload := checkoutCompletedPayload("evt_bad", "cs_x", "pi_x")
	header := SignWebhookPayload(payload, "whsec_wrong", time.Now())

	_, err := svc.HandleWebhook(context.Background(), payload, header)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestHandleWebhook_PublishFailureDoesNotFailWebhook(t *testing.T) {
	repo := newFakeRepository()
	publisher := &fakePublisher{err: errors.New("bucket unreachable")}
	svc := newTestService(repo, newFakeProvider(), publisher)

	preview := repo.addPreview(models.NewPreview(7, "site", models.GenerationTypeLanding))
	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "s", "c")
	require.NoError(t, err)

	payload := checkoutCompletedPayload("evt_pub", session.ID, session.PaymentIntentID)
	header := SignWebhookPayload(payload, "whsec_test", time.Now())

	_, err = svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, repo.payments[session.ID].Status)
}

func TestReconcile_FailedPaymentReleasesPreview(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, newFakeProvider(), nil)

	preview := repo.addPreview(models.NewPreview(7, "site", models.GenerationTypeLanding))
	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "s", "c")
	require.NoError(t, err)

	err = svc.Reconcile(context.Background(), &Event{
		ID:        "evt_fail",
		Kind:      EventPaymentFailed,
		SessionID: session.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusFailed, repo.payments[session.ID].Status)
	assert.Equal(t, models.PreviewPaymentUnpaid, preview.PaymentStatus)
	assert.False(t, preview.IsPublished)
}

func TestReconcile_TerminalPaymentIgnoresEvents(t *testing.T) {
	repo := newFakeRepository()
	publisher := &fakePublisher{}
	svc := newTestService(repo, newFakeProvider(), publisher)

	preview := repo.addPreview(models.NewPreview(7, "site", models.GenerationTypeLanding))
	session, err := svc.OpenCheckout(context.Background(), 7, preview.UUID, "s", "c")
	require.NoError(t, err)
	require.NoError(t, repo.CompletePaymentAndMarkPaid(repo.payments[session.ID]))
	publishedBefore := len(publisher.published)

	// A late failure event on a completed payment must be dropped.
	err = svc.Reconcile(context.Background(), &Event{
		ID:        "evt_late",
		Kind:      EventPaymentFailed,
		SessionID: session.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, repo.payments[session.ID].Status)
	assert.Equal(t, models.PreviewPaymentPaid, preview.PaymentStatus)
	assert.Len(t, publisher.published, publishedBefore)
}

func TestReconcile_UnmatchedEventIsDropped(t *testing.T) {
	svc := newTestService(newFakeRepository(), newFakeProvider(), nil)

	err := svc.Reconcile(context.Background(), &Event{
		ID:        "evt_orphan",
		Kind:      EventCheckoutCompleted,
		SessionID: "cs_never_created",
	})
	assert.NoError(t, err)
}

func TestParseWebhookEvent(t *testing.T) {
	payload := checkoutCompletedPayload("evt_parse", "cs_9", "pi_9")

	event, err := ParseWebhookEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "evt_parse", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Kind)
	assert.Equal(t, "cs_9", event.SessionID)
	assert.Equal(t, "pi_9", event.PaymentIntentID)
	assert.Equal(t, "p-1", event.PreviewUUID)
	assert.Equal(t, uint(7), event.UserID)
}

func TestParseWebhookEvent_PaymentIntent(t *testing.T) {
	payload := []byte(`{"id":"evt_pi","type":"payment_intent.succeeded","data":{"object":{"id":"pi_42","metadata":{}}}}`)

	event, err := ParseWebhookEvent(payload)
	require.NoError(t, err)
	assert.Empty(t, event.SessionID)
	assert.Equal(t, "pi_42", event.PaymentIntentID)
}

func TestParseWebhookEvent_Invalid(t *testing.T) {
	for _, payload := range []string{`not json`, `{}`, `{"type":"x"}`} {
		_, err := ParseWebhookEvent([]byte(payload))
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		status  string
		kind    EventKind
		ok      bool
		next    string
		publish bool
	}{
		{models.PaymentStatusPending, EventCheckoutCompleted, true, models.PaymentStatusCompleted, true},
		{models.PaymentStatusPending, EventPaymentSucceeded, true, models.PaymentStatusCompleted, true},
		{models.PaymentStatusPending, EventPaymentFailed, true, models.PaymentStatusFailed, false},
		{models.PaymentStatusPending, EventCheckoutExpired, true, models.PaymentStatusFailed, false},
		{models.PaymentStatusCompleted, EventPaymentFailed, false, "", false},
		{models.PaymentStatusFailed, EventCheckoutCompleted, false, "", false},
	}

	for _, tt := range tests {
		got, ok := lookupTransition(tt.status, tt.kind)
		if ok != tt.ok {
			t.Fatalf("lookupTransition(%s, %s) ok = %v, want %v", tt.status, tt.kind, ok, tt.ok)
		}
		if ok && (got.NextStatus != tt.next || got.Publish != tt.publish) {
			t.Fatalf("lookupTransition(%s, %s) = %+v", tt.status, tt.kind, got)
		}
	}
}
