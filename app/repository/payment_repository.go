package repository

import (
	"github.com/alexfalanx/wevibecode/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface. Write paths
// for payments live in the payment service; this repository is read-only
// listing for dashboards and admin views.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByUUID retrieves a payment by its public UUID
func (r *paymentRepository) GetByUUID(uuid string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("uuid = ?", uuid).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByUserID retrieves a page of the user's payments, newest first
func (r *paymentRepository) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

// GetByPreviewID retrieves every payment attempt against a preview
func (r *paymentRepository) GetByPreviewID(previewID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("preview_id = ?", previewID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}
