package models

import (
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user preferences, plan info and the credit balance
// that meters website generation.
type UserSettings struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"uniqueIndex" json:"user_id"`
	Plan              string         `gorm:"type:varchar(50);default:'free'" json:"plan"`
	PreferredLanguage string         `gorm:"type:varchar(5);default:''" json:"preferred_language"`
	CreditsRemaining  uint           `gorm:"default:0" json:"credits_remaining"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateUserSettings returns existing settings or creates defaults
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	if err := db.Where("user_id = ?", userID).First(&us).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			us = UserSettings{UserID: userID, Plan: "free"}
			if err := db.Create(&us).Error; err != nil {
				return nil, err
			}
			return &us, nil
		}
		return nil, err
	}
	return &us, nil
}

// HasPreferredLanguage reports whether the user has stored a UI language.
func (us *UserSettings) HasPreferredLanguage() bool {
	return us != nil && us.PreferredLanguage != ""
}
