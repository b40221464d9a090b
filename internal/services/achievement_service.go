// Package services – AchievementService
//
// AchievementService drives evaluation: for each evaluator it computes the
// user's metric, and for every catalog definition of that category whose
// target has been reached it initializes and advances the progress row.
// Rows that transition to completed during the run are reported as unlocked.
//
// Failures degrade rather than propagate. An unavailable mapping yields empty
// results, an unmapped definition is skipped, and a metric error abandons
// that evaluator only. Every run recomputes from ground truth, so repeating a
// check is harmless.
//
// Observability: public methods are OpenTelemetry-instrumented; completions
// increment achievements_unlocked_total{category}.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelfquest/achievements-backend/internal/catalog"
	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

var achievementsUnlocked = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "achievements_unlocked_total",
		Help: "Total number of achievement completion transitions.",
	},
	[]string{"category"},
)

func init() {
	prometheus.MustRegister(achievementsUnlocked)
}

// UnlockSink receives every completion transition. Errors are logged only.
type UnlockSink interface {
	Unlocked(ctx context.Context, userID string, def catalog.Definition) error
}

// AchievementView is a progress row joined with its catalog definition.
type AchievementView struct {
	AchievementID string             `json:"achievement_id"`
	Key           string             `json:"key"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Category      catalog.Category   `json:"category"`
	Difficulty    catalog.Difficulty `json:"difficulty"`
	Points        int                `json:"points"`
	CurrentValue  int                `json:"current_value"`
	TargetValue   int                `json:"target_value"`
	Completed     bool               `json:"completed"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
	Notified      bool               `json:"notified"`
}

// AchievementService evaluates and reports user achievements.
type AchievementService struct {
	Registry   *Registry
	Tracker    *ProgressTracker
	Evaluators []Evaluator

	// Sink is optional.
	Sink UnlockSink
}

// NewAchievementService wires a service from its collaborators.
func NewAchievementService(reg *Registry, tracker *ProgressTracker, evals []Evaluator) *AchievementService {
	return &AchievementService{
		Registry:   reg,
		Tracker:    tracker,
		Evaluators: evals,
	}
}

// CheckAll runs every evaluator for userID and returns the store ids of the
// achievements unlocked by this run. It never fails; problems are logged.
func (s *AchievementService) CheckAll(ctx context.Context, userID string) []string {
	unlocked, _ := s.Check(ctx, userID)
	return unlocked
}

// Check is CheckAll that also reports what went wrong. Failures of single
// evaluators or definitions do not stop the run; they are joined into the
// returned error alongside whatever was unlocked. A definition with no store
// row is skipped without error.
func (s *AchievementService) Check(ctx context.Context, userID string) ([]string, error) {
	tr := otel.Tracer("services/AchievementService")
	ctx, span := tr.Start(ctx, "CheckAll",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	unlocked := []string{}
	if strings.TrimSpace(userID) == "" {
		return unlocked, nil
	}
	if !s.Registry.EnsureLoaded(ctx) {
		log.Warn().Str("user_id", userID).Msg("achievement check skipped: mapping unavailable")
		span.RecordError(ErrMappingUnavailable)
		return unlocked, ErrMappingUnavailable
	}
	var errs []error
	for _, ev := range s.Evaluators {
		ids, err := s.evaluate(ctx, userID, ev)
		unlocked = append(unlocked, ids...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	span.SetAttributes(attribute.Int("unlocked", len(unlocked)))
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return unlocked, err
}

func (s *AchievementService) evaluate(ctx context.Context, userID string, ev Evaluator) ([]string, error) {
	value, err := ev.Metric(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("category", string(ev.Category)).Msg("metric evaluation failed")
		return nil, fmt.Errorf("%s metric: %w", ev.Category, err)
	}

	var (
		unlocked []string
		errs     []error
	)
	for _, def := range catalog.ByCategory(ev.Category) {
		if def.Requirement.Target > value {
			continue
		}
		id, ok := s.Registry.Resolve(def.Key)
		if !ok {
			log.Warn().Str("achievement_key", def.Key).Msg("achievement not mapped; skipping")
			continue
		}
		if _, err := s.Tracker.Initialize(ctx, userID, id); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("achievement_id", id).Msg("initialize progress failed")
			errs = append(errs, fmt.Errorf("initialize %s: %w", def.Key, err))
			continue
		}
		p, completed, err := s.Tracker.UpdateProgress(ctx, userID, id, value)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Str("achievement_id", id).Msg("update progress failed")
			errs = append(errs, fmt.Errorf("update %s: %w", def.Key, err))
			continue
		}
		if completed && !p.Notified {
			unlocked = append(unlocked, id)
			s.onUnlocked(ctx, userID, id, def)
		}
	}
	return unlocked, errors.Join(errs...)
}

func (s *AchievementService) onUnlocked(ctx context.Context, userID, id string, def catalog.Definition) {
	achievementsUnlocked.WithLabelValues(string(def.Category)).Inc()
	log.Info().
		Str("user_id", userID).
		Str("achievement_key", def.Key).
		Str("achievement_id", id).
		Int("points", def.Points).
		Msg("achievement unlocked")
	if s.Sink == nil {
		return
	}
	if err := s.Sink.Unlocked(ctx, userID, def); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("achievement_key", def.Key).Msg("unlock sink failed")
	}
}

// GetUserAchievements returns every progress row for userID with its
// definition. Rows whose id no longer resolves are omitted.
func (s *AchievementService) GetUserAchievements(ctx context.Context, userID string) ([]AchievementView, error) {
	tr := otel.Tracer("services/AchievementService")
	ctx, span := tr.Start(ctx, "GetUserAchievements",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if !s.Registry.EnsureLoaded(ctx) {
		return []AchievementView{}, nil
	}
	rows, err := s.Tracker.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(rows), nil
}

// GetUnnotifiedAchievements returns completed rows not yet acknowledged.
func (s *AchievementService) GetUnnotifiedAchievements(ctx context.Context, userID string) ([]AchievementView, error) {
	tr := otel.Tracer("services/AchievementService")
	ctx, span := tr.Start(ctx, "GetUnnotifiedAchievements",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if !s.Registry.EnsureLoaded(ctx) {
		return []AchievementView{}, nil
	}
	rows, err := s.Tracker.ListUnnotifiedCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(rows), nil
}

// MarkNotified acknowledges a completed achievement. Acknowledging twice is
// not an error.
func (s *AchievementService) MarkNotified(ctx context.Context, userID, achievementID string) error {
	tr := otel.Tracer("services/AchievementService")
	ctx, span := tr.Start(ctx, "MarkNotified",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("achievement.id", achievementID),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUser
	}
	_, err := s.Tracker.MarkNotified(ctx, userID, achievementID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAchievementNotFound
	}
	return err
}

func (s *AchievementService) views(rows []domain.UserAchievement) []AchievementView {
	out := make([]AchievementView, 0, len(rows))
	for _, p := range rows {
		def, ok := s.Registry.ReverseResolve(p.AchievementID)
		if !ok {
			continue
		}
		out = append(out, AchievementView{
			AchievementID: p.AchievementID,
			Key:           def.Key,
			Title:         def.Title,
			Description:   def.Description,
			Category:      def.Category,
			Difficulty:    def.Difficulty,
			Points:        def.Points,
			CurrentValue:  p.CurrentValue,
			TargetValue:   p.TargetValue,
			Completed:     p.Completed,
			CompletedAt:   p.CompletedAt,
			Notified:      p.Notified,
		})
	}
	return out
}
