// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model. The preference document is stored as JSON in a single column.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// GetProfile returns the profile of userID or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts or replaces the profile of userID.
func UpsertProfile(ctx context.Context, db *gorm.DB, userID string, data domain.OnboardingData) error {
	now := time.Now().UTC()
	p := &domain.Profile{UserID: userID, Data: data, CreatedAt: now, UpdatedAt: now}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(p).Error
}
