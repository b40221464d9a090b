package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/http/middleware"
	"github.com/shelfquest/achievements-backend/internal/leaderboard"
	"github.com/shelfquest/achievements-backend/internal/services"
)

// AchievementService is the evaluation and notification surface.
type AchievementService interface {
	CheckAll(ctx context.Context, userID string) []string
	GetUserAchievements(ctx context.Context, userID string) ([]services.AchievementView, error)
	GetUnnotifiedAchievements(ctx context.Context, userID string) ([]services.AchievementView, error)
	MarkNotified(ctx context.Context, userID, achievementID string) error
}

// EventService enqueues and drains achievement events.
type EventService interface {
	Enqueue(ctx context.Context, userID, eventType, payload string) (*domain.AchievementEvent, error)
	ProcessBatch(ctx context.Context, maxBatch int) (int, error)
}

// ReadingService records reading status changes.
type ReadingService interface {
	SetStatus(ctx context.Context, userID, bookID, status string) (*domain.UserBook, error)
}

// Leaderboard serves the points ranking.
type Leaderboard interface {
	Top(ctx context.Context, n int) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, userID string) (leaderboard.Entry, error)
}

// Handlers groups the API endpoints.
type Handlers struct {
	achievements AchievementService
	events       EventService
	reading      ReadingService
	board        Leaderboard

	// DB backs list ETags and idempotency records. Nil disables both.
	DB *gorm.DB
	// IdempotencyTTL is how long a POST /events key is honoured.
	IdempotencyTTL time.Duration
}

// New binds handlers to their services. board may be nil when the
// leaderboard is disabled.
func New(achievements AchievementService, events EventService, reading ReadingService, board Leaderboard) *Handlers {
	return &Handlers{
		achievements:   achievements,
		events:         events,
		reading:        reading,
		board:          board,
		IdempotencyTTL: 24 * time.Hour,
	}
}

func userID(c *gin.Context) string {
	return middleware.UserID(c)
}
