package repository

import (
	"github.com/alexfalanx/wevibecode/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)

	GetSettings(userID uint) (*models.UserSettings, error)
	UpdateSettings(settings *models.UserSettings) error
	SetPreferredLanguage(userID uint, lang string) error

	GetProviderAccount(provider, providerUserID string) (*models.ProviderAccount, error)
	LinkProviderAccount(account *models.ProviderAccount) error
}

// PreviewRepository defines the interface for preview-related database operations
type PreviewRepository interface {
	Create(preview *models.Preview) error
	GetByID(id uint) (*models.Preview, error)
	GetByUUID(uuid string) (*models.Preview, error)
	GetBySlug(slug string) (*models.Preview, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Preview, error)
	CountByUserID(userID uint) (int64, error)
	Update(preview *models.Preview) error
	UpdateContent(previewID uint, html, css, js string) error
	SetSlug(previewID uint, slug string) error
	Unpublish(previewID uint) error
	Delete(id uint) error
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	GetByUUID(uuid string) (*models.Payment, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Payment, error)
	GetByPreviewID(previewID uint) ([]models.Payment, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Preview PreviewRepository
	Payment PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Preview: NewPreviewRepository(db),
		Payment: NewPaymentRepository(db),
	}
}
