package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the FK pragma applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Book{}).TableName():             "books",
		(UserBook{}).TableName():         "user_books",
		(Achievement{}).TableName():      "achievements",
		(UserAchievement{}).TableName():  "user_achievements",
		(AchievementEvent{}).TableName(): "achievement_events",
		(Idempotency{}).TableName():      "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newDomainDB(t)

	models := []any{&Book{}, &UserBook{}, &Achievement{}, &UserAchievement{}, &AchievementEvent{}, &Idempotency{}}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range models {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&UserBook{}, "ux_user_book") {
		t.Fatalf("expected unique index ux_user_book on user_books")
	}
	if !m.HasIndex(&UserAchievement{}, "ux_user_achievement") {
		t.Fatalf("expected unique index ux_user_achievement on user_achievements")
	}
	if !m.HasIndex(&AchievementEvent{}, "idx_events_pending") {
		t.Fatalf("expected index idx_events_pending on achievement_events")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected unique index ux_user_scope_key on idempotency")
	}
}

func TestUserAchievement_UniquePerUserAndAchievement(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&UserAchievement{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	now := time.Now().UTC()
	a := &UserAchievement{ID: "p1", UserID: "u1", AchievementID: "a1", TargetValue: 5, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("insert first: %v", err)
	}
	b := &UserAchievement{ID: "p2", UserID: "u1", AchievementID: "a1", TargetValue: 5, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(b).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate (user_id, achievement_id)")
	}
	c := &UserAchievement{ID: "p3", UserID: "u2", AchievementID: "a1", TargetValue: 5, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("other user should be allowed: %v", err)
	}
}

func TestUserBook_StatusCheckAndCascade(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Book{}, &UserBook{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	if err := db.Create(&Book{ID: "b1", Title: "Dune", Author: "Herbert"}).Error; err != nil {
		t.Fatalf("insert book: %v", err)
	}
	bad := &UserBook{ID: "ub0", UserID: "u1", BookID: "b1", Status: "burned"}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK constraint to reject unknown status")
	}

	ok := &UserBook{ID: "ub1", UserID: "u1", BookID: "b1", Status: StatusRead}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("insert user book: %v", err)
	}

	if err := db.Delete(&Book{}, "id = ?", "b1").Error; err != nil {
		t.Fatalf("delete book: %v", err)
	}
	var n int64
	db.Model(&UserBook{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected cascade delete of user_books, still have %d", n)
	}
}
