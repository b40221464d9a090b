// Package catalog holds the compiled-in achievement definitions. It is the
// single source of truth for thresholds and point values; nothing here is
// ever read back from the store.
package catalog

import (
	"fmt"
	"sort"
)

// Category groups definitions by the metric evaluator that feeds them.
type Category string

const (
	CategoryMilestone   Category = "milestone"
	CategoryGenre       Category = "genre"
	CategorySeries      Category = "series"
	CategoryAuthor      Category = "author"
	CategoryConsistency Category = "consistency"
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	CategoryMilestone,
	CategoryGenre,
	CategoryAuthor,
	CategorySeries,
	CategoryConsistency,
}

// Difficulty is a display tier. It never affects evaluation.
type Difficulty string

const (
	Bronze   Difficulty = "bronze"
	Silver   Difficulty = "silver"
	Gold     Difficulty = "gold"
	Platinum Difficulty = "platinum"
)

// Metric types produced by the evaluators.
const (
	MetricBooksRead       = "books_read"
	MetricGenresRead      = "genres_read"
	MetricAuthorBooksRead = "author_books_read"
	MetricSeriesCompleted = "series_completed"
	MetricReadingStreak   = "reading_streak_days"
)

// Requirement is the threshold a user's metric value must reach.
type Requirement struct {
	MetricType string `json:"metric_type"`
	Target     int    `json:"target"`
}

// Definition describes one achievement.
type Definition struct {
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Difficulty  Difficulty  `json:"difficulty"`
	Points      int         `json:"points"`
	Requirement Requirement `json:"requirement"`
}

var definitions = []Definition{
	// milestone
	{Key: "books-read-5", Title: "Bookworm", Description: "Finish 5 books.", Category: CategoryMilestone, Difficulty: Bronze, Points: 10, Requirement: Requirement{MetricBooksRead, 5}},
	{Key: "books-read-10", Title: "Page Turner", Description: "Finish 10 books.", Category: CategoryMilestone, Difficulty: Bronze, Points: 20, Requirement: Requirement{MetricBooksRead, 10}},
	{Key: "books-read-25", Title: "Avid Reader", Description: "Finish 25 books.", Category: CategoryMilestone, Difficulty: Silver, Points: 50, Requirement: Requirement{MetricBooksRead, 25}},
	{Key: "books-read-50", Title: "Library Regular", Description: "Finish 50 books.", Category: CategoryMilestone, Difficulty: Gold, Points: 100, Requirement: Requirement{MetricBooksRead, 50}},
	{Key: "books-read-100", Title: "Centurion", Description: "Finish 100 books.", Category: CategoryMilestone, Difficulty: Platinum, Points: 250, Requirement: Requirement{MetricBooksRead, 100}},

	// genre
	{Key: "genres-3", Title: "Explorer", Description: "Read books from 3 different genres.", Category: CategoryGenre, Difficulty: Bronze, Points: 15, Requirement: Requirement{MetricGenresRead, 3}},
	{Key: "genres-5", Title: "Eclectic Taste", Description: "Read books from 5 different genres.", Category: CategoryGenre, Difficulty: Silver, Points: 30, Requirement: Requirement{MetricGenresRead, 5}},
	{Key: "genres-10", Title: "Renaissance Reader", Description: "Read books from 10 different genres.", Category: CategoryGenre, Difficulty: Gold, Points: 75, Requirement: Requirement{MetricGenresRead, 10}},

	// author
	{Key: "author-3", Title: "Fan", Description: "Read 3 books by the same author.", Category: CategoryAuthor, Difficulty: Bronze, Points: 15, Requirement: Requirement{MetricAuthorBooksRead, 3}},
	{Key: "author-5", Title: "Devotee", Description: "Read 5 books by the same author.", Category: CategoryAuthor, Difficulty: Silver, Points: 30, Requirement: Requirement{MetricAuthorBooksRead, 5}},
	{Key: "author-10", Title: "Completionist", Description: "Read 10 books by the same author.", Category: CategoryAuthor, Difficulty: Gold, Points: 75, Requirement: Requirement{MetricAuthorBooksRead, 10}},

	// series
	{Key: "series-1", Title: "Saga Finisher", Description: "Read every book in a series.", Category: CategorySeries, Difficulty: Silver, Points: 25, Requirement: Requirement{MetricSeriesCompleted, 1}},
	{Key: "series-3", Title: "Trilogy Tamer", Description: "Complete 3 series.", Category: CategorySeries, Difficulty: Gold, Points: 60, Requirement: Requirement{MetricSeriesCompleted, 3}},
	{Key: "series-5", Title: "Epic Collector", Description: "Complete 5 series.", Category: CategorySeries, Difficulty: Platinum, Points: 120, Requirement: Requirement{MetricSeriesCompleted, 5}},

	// consistency
	{Key: "streak-3", Title: "Hat Trick", Description: "Finish books on 3 consecutive days.", Category: CategoryConsistency, Difficulty: Bronze, Points: 15, Requirement: Requirement{MetricReadingStreak, 3}},
	{Key: "streak-7", Title: "Week of Words", Description: "Finish books on 7 consecutive days.", Category: CategoryConsistency, Difficulty: Silver, Points: 40, Requirement: Requirement{MetricReadingStreak, 7}},
	{Key: "streak-30", Title: "Unstoppable", Description: "Finish books on 30 consecutive days.", Category: CategoryConsistency, Difficulty: Platinum, Points: 200, Requirement: Requirement{MetricReadingStreak, 30}},
}

var byKey = func() map[string]int {
	m := make(map[string]int, len(definitions))
	for i, d := range definitions {
		m[d.Key] = i
	}
	return m
}()

// All returns a copy of every definition in declaration order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// ByKey looks up a definition by its stable key.
func ByKey(key string) (Definition, bool) {
	i, ok := byKey[key]
	if !ok {
		return Definition{}, false
	}
	return definitions[i], true
}

// ByCategory returns the definitions of one category ordered by ascending target.
func ByCategory(c Category) []Definition {
	var out []Definition
	for _, d := range definitions {
		if d.Category == c {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Requirement.Target < out[j].Requirement.Target
	})
	return out
}

// Validate checks the structural rules of a definition list: unique keys,
// known categories, positive targets and points.
func Validate(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("definition %q: empty key", d.Title)
		}
		if _, dup := seen[d.Key]; dup {
			return fmt.Errorf("definition %q: duplicate key", d.Key)
		}
		seen[d.Key] = struct{}{}
		if !knownCategory(d.Category) {
			return fmt.Errorf("definition %q: unknown category %q", d.Key, d.Category)
		}
		if d.Requirement.Target <= 0 {
			return fmt.Errorf("definition %q: target must be > 0", d.Key)
		}
		if d.Points <= 0 {
			return fmt.Errorf("definition %q: points must be > 0", d.Key)
		}
	}
	return nil
}

func knownCategory(c Category) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}
