// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the reading-activity queries: status
// upserts on user_books and the aggregates the achievement metrics read.
//
// Aggregates only ever look at rows with status "read".
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfquest/achievements-backend/internal/domain"
)

// GetBook fetches a catalog book by id, or ErrNotFound.
func GetBook(ctx context.Context, db *gorm.DB, id string) (*domain.Book, error) {
	var b domain.Book
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// UpsertBook inserts or replaces a catalog book.
func UpsertBook(ctx context.Context, db *gorm.DB, b *domain.Book) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(b).Error
}

// GetUserBook returns the user's row for bookID, or ErrNotFound.
func GetUserBook(ctx context.Context, db *gorm.DB, userID, bookID string) (*domain.UserBook, error) {
	var ub domain.UserBook
	err := db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&ub).Error
	if err != nil {
		return nil, err
	}
	return &ub, nil
}

// SetUserBookStatus creates or updates the user's row for bookID. finishedAt
// is stored as given (nil clears it).
func SetUserBookStatus(ctx context.Context, db *gorm.DB, userID, bookID, status string, finishedAt *time.Time) (*domain.UserBook, error) {
	now := time.Now().UTC()
	ub := &domain.UserBook{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		Status:     status,
		FinishedAt: finishedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "finished_at", "updated_at"}),
		}).
		Create(ub).Error
	if err != nil {
		return nil, err
	}
	return GetUserBook(ctx, db, userID, bookID)
}

// CountBooksRead returns how many books userID has marked read.
func CountBooksRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.UserBook{}).
		Where("user_id = ? AND status = ?", userID, domain.StatusRead).
		Count(&n).Error
	return n, err
}

// CountGenresRead returns the number of distinct non-blank genres among the
// user's read books.
func CountGenresRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT b.genre)
		FROM user_books ub
		JOIN books b ON b.id = ub.book_id
		WHERE ub.user_id = ? AND ub.status = ? AND b.genre <> ''`,
		userID, domain.StatusRead).Scan(&n).Error
	return n, err
}

// MaxAuthorBooksRead returns the largest number of read books the user has
// by a single author.
func MaxAuthorBooksRead(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(cnt), 0) FROM (
			SELECT COUNT(*) AS cnt
			FROM user_books ub
			JOIN books b ON b.id = ub.book_id
			WHERE ub.user_id = ? AND ub.status = ? AND b.author <> ''
			GROUP BY b.author
		) per_author`,
		userID, domain.StatusRead).Scan(&n).Error
	return n, err
}

// CountSeriesCompleted returns the number of series in which the user has
// read every book.
func CountSeriesCompleted(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			SELECT b.series_id
			FROM books b
			LEFT JOIN user_books ub
				ON ub.book_id = b.id AND ub.user_id = ? AND ub.status = ?
			WHERE b.series_id <> ''
			GROUP BY b.series_id
			HAVING COUNT(ub.id) = COUNT(b.id)
		) done`,
		userID, domain.StatusRead).Scan(&n).Error
	return n, err
}

// ListFinishedAt returns the finish timestamps of the user's read books.
// Rows without a finish time are skipped.
func ListFinishedAt(ctx context.Context, db *gorm.DB, userID string) ([]time.Time, error) {
	var rows []struct {
		FinishedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.UserBook{}).
		Select("finished_at").
		Where("user_id = ? AND status = ? AND finished_at IS NOT NULL", userID, domain.StatusRead).
		Order("finished_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.FinishedAt)
	}
	return out, nil
}

// ReadingStats binds the aggregate queries to a handle so callers can depend
// on a metric-source interface instead of free functions.
type ReadingStats struct {
	DB *gorm.DB
}

func (s ReadingStats) BooksRead(ctx context.Context, userID string) (int64, error) {
	return CountBooksRead(ctx, s.DB, userID)
}

func (s ReadingStats) GenresRead(ctx context.Context, userID string) (int64, error) {
	return CountGenresRead(ctx, s.DB, userID)
}

func (s ReadingStats) MaxAuthorBooksRead(ctx context.Context, userID string) (int64, error) {
	return MaxAuthorBooksRead(ctx, s.DB, userID)
}

func (s ReadingStats) SeriesCompleted(ctx context.Context, userID string) (int64, error) {
	return CountSeriesCompleted(ctx, s.DB, userID)
}

func (s ReadingStats) FinishedDates(ctx context.Context, userID string) ([]time.Time, error) {
	return ListFinishedAt(ctx, s.DB, userID)
}
