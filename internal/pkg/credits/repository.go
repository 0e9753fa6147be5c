package credits

import (
	"context"

	"gorm.io/gorm"

	"github.com/alexfalanx/wevibecode/app/models"
)

// Repository provides the storage operations the ledger needs. The store, not
// the application, arbitrates the final balance: DebitIfSufficient must be a
// single conditional update so two racing charges can never drive the balance
// negative. Credit must create the settings row when none exists yet, never
// silently match zero rows.
type Repository interface {
	DebitIfSufficient(ctx context.Context, userID uint, cost int) (bool, error)
	Credit(ctx context.Context, userID uint, amount int) error
	Balance(ctx context.Context, userID uint) (int, error)
	FindLogByIdempotencyKey(ctx context.Context, key string) (*models.CreditsLogEntry, error)
	CreateLog(ctx context.Context, entry *models.CreditsLogEntry) error
	WithinTransaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) DebitIfSufficient(ctx context.Context, userID uint, cost int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserSettings{}).
		Where("user_id = ? AND credits_remaining >= ?", userID, cost).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining - ?", cost))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) Credit(ctx context.Context, userID uint, amount int) error {
	res := r.db.WithContext(ctx).
		Model(&models.UserSettings{}).
		Where("user_id = ?", userID).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// First credit movement for this user, the settings row does not exist
	// yet (signup grant runs right after user creation). Creating it here
	// keeps the grant inside the same transaction as its log entry; a
	// concurrent create trips the user_id unique index and rolls both back.
	return r.db.WithContext(ctx).Create(&models.UserSettings{
		UserID:           userID,
		CreditsRemaining: uint(amount),
	}).Error
}

func (r *gormRepository) Balance(ctx context.Context, userID uint) (int, error) {
	var us models.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&us).Error; err != nil {
		return 0, err
	}
	return int(us.CreditsRemaining), nil
}

func (r *gormRepository) FindLogByIdempotencyKey(ctx context.Context, key string) (*models.CreditsLogEntry, error) {
	var entry models.CreditsLogEntry
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *gormRepository) CreateLog(ctx context.Context, entry *models.CreditsLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepository) WithinTransaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
