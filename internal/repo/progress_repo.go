// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// UserAchievement (progress) model.
//
// State transitions are expressed as conditional UPDATEs so that concurrent
// writers cannot break the monotonic rules:
//
//   - CompleteProgress only matches rows that are still incomplete and whose
//     target is reached by the new value. At most one caller observes the
//     transition (RowsAffected == 1).
//   - SetProgressValue only touches incomplete rows.
//   - MarkProgressNotified only touches completed, unnotified rows.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfquest/achievements-backend/internal/domain"
)

// GetProgress returns the progress row for (userID, achievementID), or ErrNotFound.
func GetProgress(ctx context.Context, db *gorm.DB, userID, achievementID string) (*domain.UserAchievement, error) {
	var p domain.UserAchievement
	err := db.WithContext(ctx).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureProgress creates a zeroed progress row for (userID, achievementID)
// unless one already exists, then returns the stored row. Concurrent callers
// all end up with the same row.
func EnsureProgress(ctx context.Context, db *gorm.DB, userID, achievementID string, target int) (*domain.UserAchievement, error) {
	now := time.Now().UTC()
	row := &domain.UserAchievement{
		ID:            uuid.NewString(),
		UserID:        userID,
		AchievementID: achievementID,
		TargetValue:   target,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return GetProgress(ctx, db, userID, achievementID)
}

// CompleteProgress records value and flips the row to completed when value
// reaches the stored target and the row was not yet completed. It returns
// true only for the single update that performed the transition.
func CompleteProgress(ctx context.Context, db *gorm.DB, userID, achievementID string, value int, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND completed = ? AND target_value <= ?", userID, achievementID, false, value).
		Updates(map[string]any{
			"current_value": value,
			"completed":     true,
			"completed_at":  at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetProgressValue stores value on an incomplete row. Completed rows keep
// the value they were completed with.
func SetProgressValue(ctx context.Context, db *gorm.DB, userID, achievementID string, value int) error {
	return db.WithContext(ctx).
		Model(&domain.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND completed = ?", userID, achievementID, false).
		Update("current_value", value).Error
}

// MarkProgressNotified sets notified on a completed row and reports whether
// this call changed it. It returns ErrNotFound when the row is missing or
// not completed; an already notified row yields (false, nil).
func MarkProgressNotified(ctx context.Context, db *gorm.DB, userID, achievementID string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND completed = ? AND notified = ?", userID, achievementID, true, false).
		Updates(map[string]any{
			"notified":    true,
			"notified_at": at.UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	p, err := GetProgress(ctx, db, userID, achievementID)
	if err != nil {
		return false, err
	}
	if !p.Completed {
		return false, ErrNotFound
	}
	return false, nil
}

// ListProgress returns every progress row for userID, oldest first.
func ListProgress(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserAchievement, error) {
	var out []domain.UserAchievement
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// ListUnnotified returns completed rows for userID that have not been
// acknowledged, in completion order.
func ListUnnotified(ctx context.Context, db *gorm.DB, userID string) ([]domain.UserAchievement, error) {
	var out []domain.UserAchievement
	err := db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND notified = ?", userID, true, false).
		Order("completed_at asc, id asc").
		Find(&out).Error
	return out, err
}
