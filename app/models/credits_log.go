package models

import "time"

const (
	CreditActionGenerateWebsite = "generate_website"
	CreditActionRegenerate      = "regenerate_website"
	CreditActionSignupBonus     = "signup_bonus"
	CreditActionAdminGrant      = "admin_grant"
)

// CreditsLogEntry is the append-only audit trail for every credit movement.
// Debits store a positive CreditsUsed, grants a negative one. Rows are never
// updated or deleted; the idempotency key dedupes retried charges.
type CreditsLogEntry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Action         string    `gorm:"type:varchar(50);not null;index" json:"action"`
	CreditsUsed    int       `gorm:"not null" json:"credits_used"`
	Details        string    `gorm:"type:text" json:"details"`
	IdempotencyKey string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
