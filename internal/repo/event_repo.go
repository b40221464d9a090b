// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AchievementEvent queue table.
//
// The queue is append-only: rows are inserted unprocessed and flipped to
// processed exactly once. Nothing is ever deleted here.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/domain"
)

// CreateEvent appends an unprocessed event for userID.
func CreateEvent(ctx context.Context, db *gorm.DB, userID, eventType, payload string) (*domain.AchievementEvent, error) {
	e := &domain.AchievementEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent returns the event with id, or ErrNotFound.
func GetEvent(ctx context.Context, db *gorm.DB, id string) (*domain.AchievementEvent, error) {
	var e domain.AchievementEvent
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListPendingEvents returns up to limit unprocessed events, oldest first.
func ListPendingEvents(ctx context.Context, db *gorm.DB, limit int) ([]domain.AchievementEvent, error) {
	var out []domain.AchievementEvent
	err := db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPendingEvents returns the number of unprocessed events.
func CountPendingEvents(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.AchievementEvent{}).
		Where("processed = ?", false).
		Count(&n).Error
	return n, err
}

// MarkEventProcessed flips an unprocessed event to processed and records
// lastError (empty on success). It returns false when the event was already
// processed or does not exist.
func MarkEventProcessed(ctx context.Context, db *gorm.DB, id, lastError string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.AchievementEvent{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at.UTC(),
			"last_error":   lastError,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
