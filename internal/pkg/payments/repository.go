package payments

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
)

// Repository is the persistence surface the payment service needs. Every
// status transition goes through here so the pending-guard lives in one place.
type Repository interface {
	CreatePayment(payment *models.Payment) error
	FindPaymentBySessionID(sessionID string) (*models.Payment, error)
	FindPaymentByIntentID(intentID string) (*models.Payment, error)
	FindPendingPaymentForPreview(previewID uint) (*models.Payment, error)
	CompletePaymentAndMarkPaid(payment *models.Payment) error
	FailPayment(payment *models.Payment) error

	FindPreviewByUUID(uuid string) (*models.Preview, error)
	FindPreviewByID(id uint) (*models.Preview, error)
	UpdatePreviewPaymentStatus(previewID uint, from, to string) error

	RecordWebhookEvent(event *models.PaymentWebhookEvent) (created bool, err error)
	MarkWebhookProcessed(eventID uint, processingErr string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns the gorm-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *gormRepository) FindPaymentBySessionID(sessionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("provider_session_id = ?", sessionID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) FindPaymentByIntentID(intentID string) (*models.Payment, error) {
	if intentID == "" {
		return nil, nil
	}
	var payment models.Payment
	err := r.db.Where("provider_intent_id = ?", intentID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) FindPendingPaymentForPreview(previewID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("preview_id = ? AND status = ?", previewID, models.PaymentStatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// CompletePaymentAndMarkPaid flips the payment to completed and the preview
// to paid+published in one transaction. The status guard on the UPDATE keeps
// a concurrent duplicate delivery from applying the transition twice.
func (r *gormRepository) CompletePaymentAndMarkPaid(payment *models.Payment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Preview{}).
			Where("id = ?", payment.PreviewID).
			Updates(map[string]interface{}{
				"payment_status": models.PreviewPaymentPaid,
				"is_published":   true,
				"published_at":   now,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark preview paid: %w", err)
		}

		payment.Status = models.PaymentStatusCompleted
		payment.CompletedAt = &now
		return nil
	})
}

// FailPayment moves a pending payment to failed and releases the preview back
// to unpaid so the user can start another checkout. Publication state is left
// alone.
func (r *gormRepository) FailPayment(payment *models.Payment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Preview{}).
			Where("id = ? AND payment_status = ?", payment.PreviewID, models.PreviewPaymentPending).
			Update("payment_status", models.PreviewPaymentUnpaid).Error; err != nil {
			return err
		}

		payment.Status = models.PaymentStatusFailed
		return nil
	})
}

func (r *gormRepository) FindPreviewByUUID(uuid string) (*models.Preview, error) {
	var preview models.Preview
	err := r.db.Where("uuid = ?", uuid).First(&preview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &preview, nil
}

func (r *gormRepository) FindPreviewByID(id uint) (*models.Preview, error) {
	var preview models.Preview
	err := r.db.First(&preview, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &preview, nil
}

// UpdatePreviewPaymentStatus moves a preview between payment states with a
// guard on the expected current state.
func (r *gormRepository) UpdatePreviewPaymentStatus(previewID uint, from, to string) error {
	return r.db.Model(&models.Preview{}).
		Where("id = ? AND payment_status = ?", previewID, from).
		Update("payment_status", to).Error
}

// RecordWebhookEvent inserts the event row. A duplicate (provider, event id)
// pair reports created=false without error so redeliveries can be
// acknowledged quietly.
func (r *gormRepository) RecordWebhookEvent(event *models.PaymentWebhookEvent) (bool, error) {
	err := r.db.Create(event).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *gormRepository) MarkWebhookProcessed(eventID uint, processingErr string) error {
	now := time.Now()
	return r.db.Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at":     now,
			"processing_error": processingErr,
		}).Error
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The mysql driver is not always mapped to gorm's sentinel.
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}
