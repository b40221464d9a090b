package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection: shared-cache sqlite rejects concurrent writers.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newEngine wires a seeded registry, tracker and service over db.
func newEngine(t *testing.T, db *gorm.DB) (*Registry, *ProgressTracker, *AchievementService) {
	t.Helper()
	reg := NewRegistry(db, RegistryOptions{SeedMissing: true})
	if !reg.EnsureLoaded(context.Background()) {
		t.Fatalf("registry failed to load")
	}
	tracker := NewProgressTracker(db, reg)
	svc := NewAchievementService(reg, tracker, DefaultEvaluators(repo.ReadingStats{DB: db}))
	return reg, tracker, svc
}

// readBooks creates n catalog books and marks them read for userID, one per
// day starting at start.
func readBooks(t *testing.T, db *gorm.DB, userID string, n int, start time.Time) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		b := &domain.Book{
			ID:     fmt.Sprintf("%s-book-%d", userID, i),
			Title:  fmt.Sprintf("Book %d", i),
			Author: fmt.Sprintf("Author %d", i),
		}
		if err := repo.UpsertBook(ctx, db, b); err != nil {
			t.Fatalf("seed book: %v", err)
		}
		at := start.AddDate(0, 0, 2*i) // gaps keep streaks at 1
		if _, err := repo.SetUserBookStatus(ctx, db, userID, b.ID, domain.StatusRead, &at); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
