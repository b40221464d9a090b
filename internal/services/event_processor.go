// Package services – EventProcessor
//
// EventProcessor drains the achievement event queue. Each event is handled in
// isolation: a failing or panicking evaluation is logged, its error text is
// stored in last_error, and the event is still marked processed so a poison
// entry can never stall the queue. Delivery is at-least-once; CheckAll recomputes from ground
// truth, so a redelivered event has no further effect.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

// DefaultBatchSize is used when ProcessBatch is called with a non-positive size.
const DefaultBatchSize = 50

// EventType is the closed set of event kinds the processor understands.
type EventType int

const (
	EventUnknown EventType = iota
	EventStatusChangedToRead
	EventBookCompleted
)

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventStatusChangedToRead:
		return "status_changed_to_read"
	case EventBookCompleted:
		return "book_completed"
	default:
		return "unknown"
	}
}

// ParseEventType maps a wire name to an EventType; unrecognized names map to
// EventUnknown.
func ParseEventType(s string) EventType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "status_changed_to_read":
		return EventStatusChangedToRead
	case "book_completed":
		return EventBookCompleted
	default:
		return EventUnknown
	}
}

var eventsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "achievement_events_processed_total",
		Help: "Achievement events consumed from the queue, by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(eventsProcessed)
}

// Checker re-evaluates a user's achievements and reports evaluation failures.
// *AchievementService satisfies it.
type Checker interface {
	Check(ctx context.Context, userID string) ([]string, error)
}

// EventProcessor enqueues and consumes achievement events.
type EventProcessor struct {
	DB      *gorm.DB
	Checker Checker

	// MaxPayloadBytes caps stored payloads; 0 means unlimited.
	MaxPayloadBytes int
}

// NewEventProcessor constructs a processor with a 64 KiB payload cap.
func NewEventProcessor(db *gorm.DB, checker Checker) *EventProcessor {
	return &EventProcessor{DB: db, Checker: checker, MaxPayloadBytes: 64 << 10}
}

// Enqueue appends an event. eventType is stored as given so producers may
// emit types this build does not know yet; they are skipped on consumption.
// A non-empty payload must be valid JSON.
func (p *EventProcessor) Enqueue(ctx context.Context, userID, eventType, payload string) (*domain.AchievementEvent, error) {
	return p.enqueue(ctx, p.DB, userID, eventType, payload)
}

// EnqueueTx is Enqueue inside the caller's transaction.
func (p *EventProcessor) EnqueueTx(ctx context.Context, tx *gorm.DB, userID, eventType, payload string) (*domain.AchievementEvent, error) {
	return p.enqueue(ctx, tx, userID, eventType, payload)
}

func (p *EventProcessor) enqueue(ctx context.Context, db *gorm.DB, userID, eventType, payload string) (*domain.AchievementEvent, error) {
	userID = strings.TrimSpace(userID)
	eventType = strings.TrimSpace(eventType)
	if userID == "" {
		return nil, ErrEmptyUser
	}
	if eventType == "" {
		return nil, fmt.Errorf("%w: event_type is required", ErrInvalidEvent)
	}
	if payload != "" && !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidEvent)
	}
	if p.MaxPayloadBytes > 0 && len(payload) > p.MaxPayloadBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidEvent, p.MaxPayloadBytes)
	}
	return repo.CreateEvent(ctx, db, userID, eventType, payload)
}

// ProcessBatch consumes up to maxBatch pending events, oldest first, and
// returns how many were marked processed. Only a failure to fetch the batch
// is returned as an error.
func (p *EventProcessor) ProcessBatch(ctx context.Context, maxBatch int) (int, error) {
	if maxBatch <= 0 {
		maxBatch = DefaultBatchSize
	}
	tr := otel.Tracer("services/EventProcessor")
	ctx, span := tr.Start(ctx, "ProcessBatch",
		trace.WithAttributes(attribute.Int("max_batch", maxBatch)),
	)
	defer span.End()

	events, err := repo.ListPendingEvents(ctx, p.DB, maxBatch)
	if err != nil {
		log.Error().Err(err).Msg("fetch pending achievement events failed")
		return 0, fmt.Errorf("list pending events: %w", err)
	}

	processed := 0
	for i := range events {
		ev := &events[i]
		outcome, lastErr := p.handle(ctx, ev)

		ok, err := repo.MarkEventProcessed(ctx, p.DB, ev.ID, lastErr, time.Now().UTC())
		if err != nil {
			log.Error().Err(err).Str("event_id", ev.ID).Msg("mark event processed failed")
			continue
		}
		if !ok {
			// Another consumer got there first.
			continue
		}
		eventsProcessed.WithLabelValues(outcome).Inc()
		processed++
	}
	span.SetAttributes(attribute.Int("processed", processed))
	return processed, nil
}

// handle dispatches one event and never panics. It returns the metrics
// outcome and the error text to store on the event.
func (p *EventProcessor) handle(ctx context.Context, ev *domain.AchievementEvent) (outcome, lastErr string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("event_id", ev.ID).
				Str("user_id", ev.UserID).
				Interface("panic", r).
				Msg("achievement event handler panicked")
			outcome, lastErr = "failed", fmt.Sprintf("panic: %v", r)
		}
	}()

	switch ParseEventType(ev.EventType) {
	case EventStatusChangedToRead, EventBookCompleted:
		unlocked, err := p.Checker.Check(ctx, ev.UserID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("event_id", ev.ID).
				Str("user_id", ev.UserID).
				Int("unlocked", len(unlocked)).
				Msg("achievement event evaluation failed")
			return "failed", err.Error()
		}
		log.Debug().
			Str("event_id", ev.ID).
			Str("event_type", ev.EventType).
			Str("user_id", ev.UserID).
			Int("unlocked", len(unlocked)).
			Msg("achievement event processed")
		return "ok", ""
	case EventUnknown:
		log.Info().
			Str("event_id", ev.ID).
			Str("event_type", ev.EventType).
			Msg("skipping unrecognized achievement event")
		return "skipped", ""
	}
	return "skipped", ""
}
