package payments

import "github.com/alexfalanx/wevibecode/app/models"

type transitionKey struct {
	Status string
	Kind   EventKind
}

type transition struct {
	NextStatus string
	Publish    bool
}

// transitionTable is the single source of truth for how webhook events move a
// payment between states. Pairs absent from the table are dropped: terminal
// payments ignore everything, and pending payments ignore event kinds that
// carry no state change.
var transitionTable = map[transitionKey]transition{
	{models.PaymentStatusPending, EventCheckoutCompleted}: {models.PaymentStatusCompleted, true},
	{models.PaymentStatusPending, EventPaymentSucceeded}:  {models.PaymentStatusCompleted, true},
	{models.PaymentStatusPending, EventPaymentFailed}:     {models.PaymentStatusFailed, false},
	{models.PaymentStatusPending, EventCheckoutExpired}:   {models.PaymentStatusFailed, false},
}

func lookupTransition(status string, kind EventKind) (transition, bool) {
	t, ok := transitionTable[transitionKey{Status: status, Kind: kind}]
	return t, ok
}
