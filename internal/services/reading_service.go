// Package services – ReadingService
//
// ReadingService records a user's reading status for a book. Moving a book to
// "read" stamps finished_at and enqueues a status_changed_to_read event in the
// same transaction, so the achievement queue never misses a finished book and
// never sees one that was rolled back.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/repo"
)

// ReadingService updates user_books and produces achievement events.
type ReadingService struct {
	DB     *gorm.DB
	Events *EventProcessor

	Now func() time.Time
}

// NewReadingService constructs a ReadingService using the wall clock.
func NewReadingService(db *gorm.DB, events *EventProcessor) *ReadingService {
	return &ReadingService{
		DB:     db,
		Events: events,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus sets the user's status for bookID. Re-marking an already read
// book keeps its original finish time and does not enqueue again.
func (s *ReadingService) SetStatus(ctx context.Context, userID, bookID, status string) (*domain.UserBook, error) {
	tr := otel.Tracer("services/ReadingService")
	ctx, span := tr.Start(ctx, "SetStatus",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("book.id", bookID),
			attribute.String("status", status),
		),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrEmptyUser
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	var out *domain.UserBook
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetBook(ctx, tx, bookID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		prev, err := repo.GetUserBook(ctx, tx, userID, bookID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		alreadyRead := prev != nil && prev.Status == domain.StatusRead

		var finishedAt *time.Time
		switch {
		case status != domain.StatusRead:
			// leaving "read" clears the finish time
		case alreadyRead && prev.FinishedAt != nil:
			finishedAt = prev.FinishedAt
		default:
			now := s.now()
			finishedAt = &now
		}

		ub, err := repo.SetUserBookStatus(ctx, tx, userID, bookID, status, finishedAt)
		if err != nil {
			return err
		}
		out = ub

		if status == domain.StatusRead && !alreadyRead {
			payload, _ := json.Marshal(map[string]string{"book_id": bookID})
			if _, err := s.Events.EnqueueTx(ctx, tx, userID, EventStatusChangedToRead.String(), string(payload)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReadingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func validStatus(s string) bool {
	switch s {
	case domain.StatusWantToRead, domain.StatusReading, domain.StatusRead:
		return true
	}
	return false
}
