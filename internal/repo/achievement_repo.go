// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides access to the achievement definitions
// table.
//
// Definition rows are read generically (one map per row) because the table
// is shared with other tooling and its column names are not guaranteed to
// match domain.Achievement. Interpreting the columns is the registry's job;
// this layer only moves rows.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfquest/achievements-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListAchievementRows returns every row of table as a column->value map.
// An empty table name falls back to the achievements table.
func ListAchievementRows(ctx context.Context, db *gorm.DB, table string) ([]map[string]any, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = domain.Achievement{}.TableName()
	}
	var rows []map[string]any
	err := db.WithContext(ctx).Table(table).Find(&rows).Error
	return rows, err
}

// InsertAchievementIfAbsent writes a definition row unless one with the same
// primary key already exists. It reports whether a row was inserted.
func InsertAchievementIfAbsent(ctx context.Context, db *gorm.DB, a *domain.Achievement) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetAchievement fetches a definition row by id, or ErrNotFound.
func GetAchievement(ctx context.Context, db *gorm.DB, id string) (*domain.Achievement, error) {
	var a domain.Achievement
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
