package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PreviewPaymentUnpaid  = "unpaid"
	PreviewPaymentPending = "pending"
	PreviewPaymentPaid    = "paid"
)

const (
	GenerationTypeLanding   = "landing"
	GenerationTypeBusiness  = "business"
	GenerationTypePortfolio = "portfolio"
	GenerationTypeBlog      = "blog"
)

// Preview is a stored AI-generated website artifact. Previews are never
// hard-deleted; unpublishing only flips the flag.
type Preview struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UUID             string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	Title            string         `gorm:"type:varchar(200)" json:"title"`
	GenerationPrompt string         `gorm:"type:text" json:"generation_prompt"`
	GenerationType   string         `gorm:"type:varchar(50);default:'landing'" json:"generation_type"`
	HTML             string         `gorm:"type:longtext" json:"html"`
	CSS              string         `gorm:"type:longtext" json:"css"`
	JS               string         `gorm:"type:longtext" json:"js"`
	PaymentStatus    string         `gorm:"type:varchar(20);default:'unpaid';index" json:"payment_status"`
	IsPublished      bool           `gorm:"default:false;index" json:"is_published"`
	Slug             string         `gorm:"type:varchar(80);uniqueIndex;default:null" json:"slug"`
	CustomDomain     string         `gorm:"type:varchar(255);default:null" json:"custom_domain"`
	PublishedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"published_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewPreview builds an unsaved preview owned by the given user.
func NewPreview(userID uint, prompt, generationType string) *Preview {
	if !IsValidGenerationType(generationType) {
		generationType = GenerationTypeLanding
	}
	return &Preview{
		UUID:             uuid.NewString(),
		UserID:           userID,
		GenerationPrompt: prompt,
		GenerationType:   generationType,
		PaymentStatus:    PreviewPaymentUnpaid,
	}
}

// IsValidGenerationType reports whether t is one of the supported site kinds.
func IsValidGenerationType(t string) bool {
	switch t {
	case GenerationTypeLanding, GenerationTypeBusiness, GenerationTypePortfolio, GenerationTypeBlog:
		return true
	}
	return false
}

// IsPaid reports whether the publish fee has been settled.
func (p *Preview) IsPaid() bool {
	return p.PaymentStatus == PreviewPaymentPaid
}

// OwnedBy reports whether the preview belongs to the given user.
func (p *Preview) OwnedBy(userID uint) bool {
	return p.UserID == userID
}
