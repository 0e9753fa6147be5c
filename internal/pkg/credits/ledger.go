package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
)

// ErrInsufficientCredits is returned when a charge would drive the balance
// below zero. The balance is left untouched.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Ledger gates metered actions on available balance and keeps the audit log
// consistent with every balance change.
type Ledger struct {
	repo Repository
}

// NewLedger creates a ledger from an injected repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// NewLedgerFromDB creates a ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// Charge debits cost credits from the user and appends the matching audit
// entry in one transaction. A balance decrement without its log entry (or the
// reverse) can never be observed. The idempotency key dedupes retries of the
// same logical action: a key that already has a log entry makes the whole
// call a no-op.
func (l *Ledger) Charge(ctx context.Context, userID uint, action string, cost int, idempotencyKey, details string) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if cost <= 0 {
		return fmt.Errorf("invalid charge cost: %d", cost)
	}
	if idempotencyKey == "" {
		return errors.New("idempotency key is required")
	}

	existing, err := l.repo.FindLogByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		// Retried action, already applied.
		return nil
	}

	return l.repo.WithinTransaction(ctx, func(tx Repository) error {
		ok, err := tx.DebitIfSufficient(ctx, userID, cost)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientCredits
		}
		return tx.CreateLog(ctx, &models.CreditsLogEntry{
			UserID:         userID,
			Action:         action,
			CreditsUsed:    cost,
			Details:        details,
			IdempotencyKey: idempotencyKey,
		})
	})
}

// Grant adds credits to the user's balance and logs the movement with a
// negative usage amount.
func (l *Ledger) Grant(ctx context.Context, userID uint, action string, amount int, details string) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}
	if amount <= 0 {
		return fmt.Errorf("invalid grant amount: %d", amount)
	}

	return l.repo.WithinTransaction(ctx, func(tx Repository) error {
		if err := tx.Credit(ctx, userID, amount); err != nil {
			return err
		}
		return tx.CreateLog(ctx, &models.CreditsLogEntry{
			UserID:         userID,
			Action:         action,
			CreditsUsed:    -amount,
			Details:        details,
			IdempotencyKey: uuid.NewString(),
		})
	})
}

// Balance returns the user's current credit balance.
func (l *Ledger) Balance(ctx context.Context, userID uint) (int, error) {
	return l.repo.Balance(ctx, userID)
}
