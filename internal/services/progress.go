// Package services – ProgressTracker
//
// ProgressTracker owns the per-user progress rows. Completion is a one-way
// transition performed by a single conditional UPDATE in the store, so two
// evaluations racing on the same (user, achievement) cannot both observe it,
// even across server instances.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

// ProgressTracker reads and advances progress rows.
type ProgressTracker struct {
	DB       *gorm.DB
	Registry *Registry

	// Now is the clock used for completion and notification timestamps.
	Now func() time.Time
}

// NewProgressTracker constructs a tracker using the wall clock.
func NewProgressTracker(db *gorm.DB, reg *Registry) *ProgressTracker {
	return &ProgressTracker{
		DB:       db,
		Registry: reg,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the progress row, or repo.ErrNotFound.
func (t *ProgressTracker) Get(ctx context.Context, userID, achievementID string) (*domain.UserAchievement, error) {
	return repo.GetProgress(ctx, t.DB, userID, achievementID)
}

// Initialize creates a zeroed row for (userID, achievementID) if none exists
// and returns the stored row. The target is copied from the catalog.
func (t *ProgressTracker) Initialize(ctx context.Context, userID, achievementID string) (*domain.UserAchievement, error) {
	def, ok := t.Registry.ReverseResolve(achievementID)
	if !ok {
		return nil, ErrUnknownAchievement
	}
	return repo.EnsureProgress(ctx, t.DB, userID, achievementID, def.Requirement.Target)
}

// UpdateProgress records value for an existing row. The returned bool is
// true only for the call that moved the row to completed. Completed rows are
// returned unchanged.
func (t *ProgressTracker) UpdateProgress(ctx context.Context, userID, achievementID string, value int) (*domain.UserAchievement, bool, error) {
	tr := otel.Tracer("services/ProgressTracker")
	ctx, span := tr.Start(ctx, "UpdateProgress",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("achievement.id", achievementID),
			attribute.Int("value", value),
		),
	)
	defer span.End()

	p, err := repo.GetProgress(ctx, t.DB, userID, achievementID)
	if err != nil {
		return nil, false, err
	}
	if p.Completed {
		return p, false, nil
	}

	var completed bool
	switch {
	case value >= p.TargetValue:
		completed, err = repo.CompleteProgress(ctx, t.DB, userID, achievementID, value, t.now())
	case value != p.CurrentValue:
		err = repo.SetProgressValue(ctx, t.DB, userID, achievementID, value)
	default:
		return p, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("completed", completed))

	p, err = repo.GetProgress(ctx, t.DB, userID, achievementID)
	if err != nil {
		return nil, completed, err
	}
	return p, completed, nil
}

// MarkNotified acknowledges a completed row. It reports whether this call
// changed the row; ErrAchievementNotFound means there is no completed row.
func (t *ProgressTracker) MarkNotified(ctx context.Context, userID, achievementID string) (bool, error) {
	changed, err := repo.MarkProgressNotified(ctx, t.DB, userID, achievementID, t.now())
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrAchievementNotFound
	}
	return changed, err
}

// ListUnnotifiedCompleted returns completed rows still awaiting acknowledgement.
func (t *ProgressTracker) ListUnnotifiedCompleted(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	return repo.ListUnnotified(ctx, t.DB, userID)
}

// ListForUser returns every progress row for userID.
func (t *ProgressTracker) ListForUser(ctx context.Context, userID string) ([]domain.UserAchievement, error) {
	return repo.ListProgress(ctx, t.DB, userID)
}

func (t *ProgressTracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now().UTC()
}
