package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfquest/achievements-backend/internal/domain"
	"github.com/shelfquest/achievements-backend/internal/http/middleware"
	"github.com/shelfquest/achievements-backend/internal/repo"
	"github.com/shelfquest/achievements-backend/internal/services"
)

type stack struct {
	db     *gorm.DB
	h      *Handlers
	r      *gin.Engine
	events *services.EventProcessor
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:h_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newStack wires the real services over an in-memory store.
func newStack(t *testing.T, board Leaderboard) *stack {
	t.Helper()
	db := newTestDB(t)
	reg := services.NewRegistry(db, services.RegistryOptions{SeedMissing: true})
	if !reg.EnsureLoaded(context.Background()) {
		t.Fatalf("registry failed to load")
	}
	tracker := services.NewProgressTracker(db, reg)
	ach := services.NewAchievementService(reg, tracker, services.DefaultEvaluators(repo.ReadingStats{DB: db}))
	events := services.NewEventProcessor(db, ach)
	reading := services.NewReadingService(db, events)

	h := New(ach, events, reading, board)
	h.DB = db
	return &stack{db: db, h: h, r: mount(h), events: events}
}

func mount(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Identity(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/achievements/check", h.CheckAchievements)
	r.GET("/achievements", h.ListAchievements)
	r.GET("/achievements/unnotified", h.ListUnnotified)
	r.GET("/achievements/catalog", h.ListCatalog)
	r.POST("/achievements/:id/notified", h.MarkNotified)
	r.POST("/events", h.EnqueueEvent)
	r.POST("/events/process", h.ProcessEvents)
	r.PUT("/books/:id/status", h.SetBookStatus)
	r.GET("/leaderboard", h.TopReaders)
	r.GET("/leaderboard/me", h.MyRank)
	return r
}

func do(r http.Handler, method, path, user, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// seedReads marks n distinct books read for userID, two days apart.
func seedReads(t *testing.T, db *gorm.DB, userID string, n int) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		b := &domain.Book{ID: fmt.Sprintf("%s-b%d", userID, i), Title: fmt.Sprintf("T%d", i), Author: fmt.Sprintf("A%d", i)}
		if err := repo.UpsertBook(ctx, db, b); err != nil {
			t.Fatalf("seed book: %v", err)
		}
		at := start.AddDate(0, 0, 2*i)
		if _, err := repo.SetUserBookStatus(ctx, db, userID, b.ID, domain.StatusRead, &at); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
}
