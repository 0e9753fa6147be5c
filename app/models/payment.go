package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment tracks one checkout attempt against a preview. A record makes
// exactly one terminal transition (completed or failed); repeated provider
// notifications for the same session must not re-apply it.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UUID              string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	PreviewID         uint       `gorm:"index;not null" json:"preview_id"`
	ProviderSessionID string     `gorm:"type:varchar(191);uniqueIndex" json:"provider_session_id"`
	ProviderIntentID  string     `gorm:"type:varchar(191);index;default:''" json:"provider_intent_id"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	Currency          string     `gorm:"type:varchar(3);default:'eur'" json:"currency"`
	Status            string     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPayment builds an unsaved pending payment tied 1:1 to a provider session.
func NewPayment(userID, previewID uint, sessionID, intentID string, amountCents int64, currency string) *Payment {
	return &Payment{
		UUID:              uuid.NewString(),
		UserID:            userID,
		PreviewID:         previewID,
		ProviderSessionID: sessionID,
		ProviderIntentID:  intentID,
		AmountCents:       amountCents,
		Currency:          currency,
		Status:            PaymentStatusPending,
	}
}

// IsTerminal reports whether the payment already reached completed or failed.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
