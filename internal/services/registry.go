// Package services – Registry
//
// This file implements the identity mapping between catalog keys and the ids
// of achievement rows in the store. The store's column naming is not under
// the catalog's control, so rows are read generically and the id, title,
// metric and target columns are picked from a list of known spellings.
//
// A definition matches a row when the case-folded titles are equal, or when
// the metric type and target are equal. The first matching row in store
// order wins; duplicates are not disambiguated further.
//
// The map is built once per Registry and kept until Reload is called. Load
// failures are logged and reported as false; they never propagate.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/catalog"
	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

// Candidate column names, in priority order.
var (
	idColumns     = []string{"id", "achievement_id", "uuid"}
	titleColumns  = []string{"title", "name"}
	metricColumns = []string{"metric_type", "requirement_type"}
	targetColumns = []string{"target", "target_value", "requirement_value"}
)

// RegistryOptions tunes how a Registry reads and seeds the store.
type RegistryOptions struct {
	// Table holds the achievement rows. Empty means the canonical table.
	Table string
	// SeedMissing inserts definitions that match no row. Only applies when
	// Table is the canonical table.
	SeedMissing bool
	// IDs derives ids for seeded rows. Defaults to KeyIDv1.
	IDs IDScheme
	// Definitions overrides the catalog (tests). Defaults to catalog.All().
	Definitions []catalog.Definition
}

// Registry resolves catalog keys to store ids and back.
type Registry struct {
	db   *gorm.DB
	opts RegistryOptions

	group singleflight.Group

	mu     sync.RWMutex
	loaded bool
	byKey  map[string]string
	byID   map[string]catalog.Definition
}

// NewRegistry constructs an unloaded Registry.
func NewRegistry(db *gorm.DB, opts RegistryOptions) *Registry {
	if strings.TrimSpace(opts.Table) == "" {
		opts.Table = domain.Achievement{}.TableName()
	}
	if opts.IDs == nil {
		opts.IDs = KeyIDv1
	}
	if opts.Definitions == nil {
		opts.Definitions = catalog.All()
	}
	return &Registry{db: db, opts: opts}
}

// EnsureLoaded builds the mapping on first use. Concurrent first callers
// share one store read. It reports whether a mapping is available.
func (r *Registry) EnsureLoaded(ctx context.Context) bool {
	if r.Loaded() {
		return true
	}
	return r.load(ctx, false)
}

// Reload rebuilds the mapping from the store. On failure the previous
// mapping is kept and false is returned.
func (r *Registry) Reload(ctx context.Context) bool {
	return r.load(ctx, true)
}

// Loaded reports whether a mapping has been built.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Resolve returns the store id mapped to key.
func (r *Registry) Resolve(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key]
	return id, ok
}

// ReverseResolve returns the definition mapped to a store id.
func (r *Registry) ReverseResolve(id string) (catalog.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// load shares one build between concurrent callers. The build ignores the
// leader's cancellation so it cannot fail the load for the other waiters.
func (r *Registry) load(ctx context.Context, force bool) bool {
	v, _, _ := r.group.Do("load", func() (any, error) {
		if !force && r.Loaded() {
			return true, nil
		}
		byKey, byID, err := r.build(context.WithoutCancel(ctx))
		if err != nil {
			log.Warn().Err(err).Str("table", r.opts.Table).Msg("achievement mapping unavailable")
			return false, nil
		}
		r.mu.Lock()
		r.byKey, r.byID, r.loaded = byKey, byID, true
		r.mu.Unlock()
		log.Info().Int("mapped", len(byKey)).Int("definitions", len(r.opts.Definitions)).Msg("achievement mapping loaded")
		return true, nil
	})
	return v.(bool)
}

func (r *Registry) build(ctx context.Context) (map[string]string, map[string]catalog.Definition, error) {
	tr := otel.Tracer("services/Registry")
	ctx, span := tr.Start(ctx, "build",
		trace.WithAttributes(attribute.String("table", r.opts.Table)),
	)
	defer span.End()

	rows, err := repo.ListAchievementRows(ctx, r.db, r.opts.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("list achievement rows: %w", err)
	}

	fold := cases.Fold()
	byKey := make(map[string]string, len(r.opts.Definitions))
	byID := make(map[string]catalog.Definition, len(r.opts.Definitions))

	for _, def := range r.opts.Definitions {
		wantTitle := fold.String(strings.TrimSpace(def.Title))
		for _, row := range rows {
			id, ok := rowString(row, idColumns)
			if !ok {
				continue
			}
			if !rowMatches(row, def, wantTitle, fold) {
				continue
			}
			byKey[def.Key] = id
			if _, taken := byID[id]; !taken {
				byID[id] = def
			}
			break
		}
	}

	if r.opts.SeedMissing {
		r.seed(ctx, byKey, byID)
	}
	span.SetAttributes(attribute.Int("mapped", len(byKey)))
	return byKey, byID, nil
}

// seed writes every unmapped definition to the canonical table under its
// deterministic id and maps it. Individual failures leave the key unmapped.
func (r *Registry) seed(ctx context.Context, byKey map[string]string, byID map[string]catalog.Definition) {
	if r.opts.Table != (domain.Achievement{}).TableName() {
		log.Warn().Str("table", r.opts.Table).Msg("seeding skipped for non-canonical achievements table")
		return
	}
	for _, def := range r.opts.Definitions {
		if _, ok := byKey[def.Key]; ok {
			continue
		}
		row := &domain.Achievement{
			ID:          r.opts.IDs.ID(def.Key),
			Title:       def.Title,
			Description: def.Description,
			Category:    string(def.Category),
			Difficulty:  string(def.Difficulty),
			Points:      def.Points,
			MetricType:  def.Requirement.MetricType,
			Target:      def.Requirement.Target,
		}
		inserted, err := repo.InsertAchievementIfAbsent(ctx, r.db, row)
		if err != nil {
			log.Warn().Err(err).Str("achievement_key", def.Key).Msg("seed achievement failed")
			continue
		}
		byKey[def.Key] = row.ID
		if _, taken := byID[row.ID]; !taken {
			byID[row.ID] = def
		}
		if inserted {
			log.Debug().Str("achievement_key", def.Key).Str("achievement_id", row.ID).Msg("seeded achievement")
		}
	}
}

func rowMatches(row map[string]any, def catalog.Definition, wantTitle string, fold cases.Caser) bool {
	if title, ok := rowString(row, titleColumns); ok && wantTitle != "" {
		if fold.String(strings.TrimSpace(title)) == wantTitle {
			return true
		}
	}
	metric, okM := rowString(row, metricColumns)
	target, okT := rowInt(row, targetColumns)
	return okM && okT && metric == def.Requirement.MetricType && target == def.Requirement.Target
}

// rowString returns the first non-empty value among cols, rendered as text.
func rowString(row map[string]any, cols []string) (string, bool) {
	for _, c := range cols {
		v, ok := row[c]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case []byte:
			s = string(t)
		case [16]byte:
			s = uuid.UUID(t).String()
		case fmt.Stringer:
			s = t.String()
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
	}
	return "", false
}

// rowInt returns the first value among cols that converts to an int.
func rowInt(row map[string]any, cols []string) (int, bool) {
	for _, c := range cols {
		v, ok := row[c]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case int:
			return t, true
		case int32:
			return int(t), true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return n, true
			}
		case []byte:
			if n, err := strconv.Atoi(strings.TrimSpace(string(t))); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
