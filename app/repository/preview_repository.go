package repository

import (
	"github.com/alexfalanx/wevibecode/app/models"
	"gorm.io/gorm"
)

// previewRepository implements the PreviewRepository interface
type previewRepository struct {
	db *gorm.DB
}

// NewPreviewRepository creates a new preview repository instance
func NewPreviewRepository(db *gorm.DB) PreviewRepository {
	return &previewRepository{db: db}
}

// Create creates a new preview in the database
func (r *previewRepository) Create(preview *models.Preview) error {
	return r.db.Create(preview).Error
}

// GetByID retrieves a preview by its numeric ID
func (r *previewRepository) GetByID(id uint) (*models.Preview, error) {
	var preview models.Preview
	err := r.db.First(&preview, id).Error
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// GetByUUID retrieves a preview by its public UUID
func (r *previewRepository) GetByUUID(uuid string) (*models.Preview, error) {
	var preview models.Preview
	err := r.db.Where("uuid = ?", uuid).First(&preview).Error
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// GetBySlug retrieves a published preview by its site slug
func (r *previewRepository) GetBySlug(slug string) (*models.Preview, error) {
	var preview models.Preview
	err := r.db.Where("slug = ? AND is_published = ?", slug, true).First(&preview).Error
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// GetByUserID retrieves a page of the user's previews, newest first
func (r *previewRepository) GetByUserID(userID uint, offset, limit int) ([]models.Preview, error) {
	var previews []models.Preview
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&previews).Error
	return previews, err
}

// CountByUserID returns the number of previews owned by a user
func (r *previewRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Preview{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Update saves the full preview record
func (r *previewRepository) Update(preview *models.Preview) error {
	return r.db.Save(preview).Error
}

// UpdateContent replaces the stored site artifact (manual edits)
func (r *previewRepository) UpdateContent(previewID uint, html, css, js string) error {
	return r.db.Model(&models.Preview{}).
		Where("id = ?", previewID).
		Updates(map[string]interface{}{
			"html": html,
			"css":  css,
			"js":   js,
		}).Error
}

// SetSlug assigns the public slug once, before first publication
func (r *previewRepository) SetSlug(previewID uint, slug string) error {
	return r.db.Model(&models.Preview{}).
		Where("id = ?", previewID).
		Update("slug", slug).Error
}

// Unpublish takes a site offline; payment state is untouched
func (r *previewRepository) Unpublish(previewID uint) error {
	return r.db.Model(&models.Preview{}).
		Where("id = ?", previewID).
		Updates(map[string]interface{}{
			"is_published": false,
			"published_at": gorm.Expr("NULL"),
		}).Error
}

// Delete soft-deletes a preview
func (r *previewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Preview{}, id).Error
}
