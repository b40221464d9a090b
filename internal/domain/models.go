// Package domain defines the persistence models for reading activity and the
// achievement engine. These types are mapped with GORM and form the core data
// layer of the service.
package domain

import (
	"time"
)

// Reading statuses stored on UserBook.
const (
	StatusWantToRead = "want_to_read"
	StatusReading    = "reading"
	StatusRead       = "read"
)

// Book is the catalog projection the achievement metrics need. Rows are
// populated by import tooling; this service only reads them.
//
// Fields:
//   - ID: stable identifier (char(36) UUID or external catalog id).
//   - Title / Author: display fields; Author drives author concentration.
//   - Genre: optional; blank genres are ignored by the diversity metric.
//   - SeriesID: optional; every book sharing a SeriesID forms one series.
//   - SeriesPosition: ordering inside the series (informational).
type Book struct {
	ID             string `json:"id"              gorm:"type:varchar(64);primaryKey"`
	Title          string `json:"title"           gorm:"type:varchar(255);not null"`
	Author         string `json:"author"          gorm:"type:varchar(255);not null;default:'';index"`
	Genre          string `json:"genre"           gorm:"type:varchar(64);not null;default:''"`
	SeriesID       string `json:"series_id"       gorm:"type:varchar(64);not null;default:'';index"`
	SeriesPosition int    `json:"series_position" gorm:"not null;default:0"`
}

// TableName returns the database table name for Book.
func (Book) TableName() string { return "books" }

// UserBook records a user's reading status for one book. A user has at most
// one row per book (enforced by unique index).
//
// Fields:
//   - Status: want_to_read | reading | read.
//   - FinishedAt: set when the status moved to read; drives streaks.
type UserBook struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string     `json:"user_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_user_book,priority:1;index"`
	BookID     string     `json:"book_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_user_book,priority:2"`
	Status     string     `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('want_to_read','reading','read')"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Book Book `json:"-" gorm:"foreignKey:BookID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserBook.
func (UserBook) TableName() string { return "user_books" }

// Achievement is the persisted materialisation of a catalog definition. The
// ID is assigned when the row is first written and is what progress rows
// reference; the catalog key itself is never stored.
type Achievement struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null;default:''"`
	Category    string    `json:"category"    gorm:"type:varchar(32);not null;index"`
	Difficulty  string    `json:"difficulty"  gorm:"type:varchar(16);not null"`
	Points      int       `json:"points"      gorm:"not null"`
	MetricType  string    `json:"metric_type" gorm:"type:varchar(64);not null"`
	Target      int       `json:"target"      gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for Achievement.
func (Achievement) TableName() string { return "achievements" }

// UserAchievement tracks one user's progress toward one achievement.
//
// Invariants:
//   - Completed never flips back to false.
//   - CompletedAt is written once, by the update that completed the row.
//   - Notified only becomes true after completion.
type UserAchievement struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string     `json:"user_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_user_achievement,priority:1;index"`
	AchievementID string     `json:"achievement_id" gorm:"type:char(36);not null;uniqueIndex:ux_user_achievement,priority:2"`
	CurrentValue  int        `json:"current_value"  gorm:"not null;default:0"`
	TargetValue   int        `json:"target_value"   gorm:"not null"`
	Completed     bool       `json:"completed"      gorm:"not null;default:false"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Notified      bool       `json:"notified"       gorm:"not null;default:false"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for UserAchievement.
func (UserAchievement) TableName() string { return "user_achievements" }

// AchievementEvent is an append-only queue entry announcing reading activity
// that may change a user's achievements. Processed moves false -> true once.
type AchievementEvent struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"      gorm:"type:varchar(64);not null;index"`
	EventType   string     `json:"event_type"   gorm:"type:varchar(64);not null"`
	Payload     string     `json:"payload"      gorm:"type:text;not null;default:''"`
	Processed   bool       `json:"processed"    gorm:"not null;default:false;index:idx_events_pending,priority:1"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty" gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time  `json:"created_at"   gorm:"index:idx_events_pending,priority:2"`
}

// TableName returns the database table name for AchievementEvent.
func (AchievementEvent) TableName() string { return "achievement_events" }
