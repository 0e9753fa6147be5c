package payments

// ProviderStripe is the provider tag stored on payments and webhook events.
const ProviderStripe = "stripe"

// EventKind classifies the provider notifications the reconciler understands.
type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.session.completed"
	EventCheckoutExpired   EventKind = "checkout.session.expired"
	EventPaymentSucceeded  EventKind = "payment_intent.succeeded"
	EventPaymentFailed     EventKind = "payment_intent.payment_failed"
)

// KnownEventKind reports whether the reconciler handles this event type at
// all; anything else is acknowledged and ignored.
func KnownEventKind(kind string) bool {
	switch EventKind(kind) {
	case EventCheckoutCompleted, EventCheckoutExpired, EventPaymentSucceeded, EventPaymentFailed:
		return true
	}
	return false
}

// CheckoutSession is the provider-agnostic shape of one hosted checkout.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Status          string // "open", "complete" or "expired"
	AmountCents     int64
	Currency        string
}

// Open reports whether the session can still be completed by the customer.
func (s *CheckoutSession) Open() bool {
	return s != nil && s.Status == "open"
}

// Event is the normalized form of one provider webhook notification.
type Event struct {
	ID              string
	Kind            EventKind
	SessionID       string
	PaymentIntentID string
	// Metadata attached when the session was created. May be absent when the
	// event does not originate from one of our checkouts.
	PreviewUUID string
	UserID      uint
}
