package services

import (
	"context"
	"sort"
	"time"

	"github.com/shelfquest/achievements-backend/internal/catalog"
)

// MetricSource provides the aggregate reading figures the evaluators need.
// repo.ReadingStats is the store-backed implementation.
type MetricSource interface {
	BooksRead(ctx context.Context, userID string) (int64, error)
	GenresRead(ctx context.Context, userID string) (int64, error)
	MaxAuthorBooksRead(ctx context.Context, userID string) (int64, error)
	SeriesCompleted(ctx context.Context, userID string) (int64, error)
	FinishedDates(ctx context.Context, userID string) ([]time.Time, error)
}

// Evaluator computes the metric value for one catalog category.
type Evaluator struct {
	Category catalog.Category
	Metric   func(ctx context.Context, userID string) (int, error)
}

// DefaultEvaluators returns one evaluator per category, in catalog order.
func DefaultEvaluators(src MetricSource) []Evaluator {
	count := func(f func(context.Context, string) (int64, error)) func(context.Context, string) (int, error) {
		return func(ctx context.Context, userID string) (int, error) {
			n, err := f(ctx, userID)
			return int(n), err
		}
	}
	byCategory := map[catalog.Category]Evaluator{
		catalog.CategoryMilestone: {Category: catalog.CategoryMilestone, Metric: count(src.BooksRead)},
		catalog.CategoryGenre:     {Category: catalog.CategoryGenre, Metric: count(src.GenresRead)},
		catalog.CategoryAuthor:    {Category: catalog.CategoryAuthor, Metric: count(src.MaxAuthorBooksRead)},
		catalog.CategorySeries:    {Category: catalog.CategorySeries, Metric: count(src.SeriesCompleted)},
		catalog.CategoryConsistency: {Category: catalog.CategoryConsistency, Metric: func(ctx context.Context, userID string) (int, error) {
			dates, err := src.FinishedDates(ctx, userID)
			if err != nil {
				return 0, err
			}
			return LongestStreak(dates), nil
		}},
	}
	out := make([]Evaluator, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		out = append(out, byCategory[c])
	}
	return out
}

// LongestStreak returns the length of the longest run of consecutive UTC
// calendar days that contain at least one of the given times.
func LongestStreak(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(times))
	seen := make(map[time.Time]struct{}, len(times))
	for _, t := range times {
		u := t.UTC()
		d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
