// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Bookmark
// model.
//
// Error semantics:
//   - Adding an existing bookmark is not an error: the (user_id, college_id)
//     unique index rejects the insert and the violation is swallowed.
//   - Removing a missing bookmark is not an error.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
)

// ListBookmarks returns the bookmarks of userID, newest first.
func ListBookmarks(ctx context.Context, db *gorm.DB, userID string) ([]domain.Bookmark, error) {
	var out []domain.Bookmark
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, college_id asc").
		Find(&out).Error
	return out, err
}

// AddBookmark saves collegeID for userID.
func AddBookmark(ctx context.Context, db *gorm.DB, userID, collegeID string) error {
	b := &domain.Bookmark{
		ID:        uuid.NewString(),
		UserID:    userID,
		CollegeID: collegeID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// RemoveBookmark deletes the bookmark of collegeID for userID.
func RemoveBookmark(ctx context.Context, db *gorm.DB, userID, collegeID string) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND college_id = ?", userID, collegeID).
		Delete(&domain.Bookmark{}).Error
}

// isUniqueViolation detects UNIQUE failures; glebarez/sqlite often returns
// plain-text errors for them.
func isUniqueViolation(err error) bool {
	low := strings.ToLower(err.Error())
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
