package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shelfquest/achievements-backend/internal/repo"
)

func TestProgressTracker_InitializeIdempotent(t *testing.T) {
	db := newSvcDB(t)
	reg, tracker, _ := newEngine(t, db)
	ctx := context.Background()
	id, _ := reg.Resolve("books-read-5")

	first, err := tracker.Initialize(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	second, err := tracker.Initialize(ctx, "u1", id)
	if err != nil {
		t.Fatalf("Initialize again: %v", err)
	}
	if first.ID != second.ID || second.CurrentValue != 0 || second.TargetValue != 5 || second.Completed || second.Notified {
		t.Fatalf("second Initialize changed state: first=%+v second=%+v", first, second)
	}
}

func TestProgressTracker_InitializeUnknown(t *testing.T) {
	db := newSvcDB(t)
	_, tracker, _ := newEngine(t, db)
	if _, err := tracker.Initialize(context.Background(), "u1", "not-a-store-id"); !errors.Is(err, ErrUnknownAchievement) {
		t.Fatalf("expected ErrUnknownAchievement, got %v", err)
	}
}

func TestProgressTracker_GetMissing(t *testing.T) {
	db := newSvcDB(t)
	_, tracker, _ := newEngine(t, db)
	if _, err := tracker.Get(context.Background(), "u1", "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected repo.ErrNotFound, got %v", err)
	}
	if _, _, err := tracker.UpdateProgress(context.Background(), "u1", "nope", 3); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("UpdateProgress on missing row: expected repo.ErrNotFound, got %v", err)
	}
}

func TestProgressTracker_CompletionIsMonotonic(t *testing.T) {
	db := newSvcDB(t)
	reg, tracker, _ := newEngine(t, db)
	ctx := context.Background()
	id, _ := reg.Resolve("books-read-5")

	clock := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	tracker.Now = func() time.Time { return clock }

	if _, err := tracker.Initialize(ctx, "u1", id); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	p, done, err := tracker.UpdateProgress(ctx, "u1", id, 3)
	if err != nil || done || p.CurrentValue != 3 || p.Completed {
		t.Fatalf("below target: p=%+v done=%v err=%v", p, done, err)
	}

	p, done, err = tracker.UpdateProgress(ctx, "u1", id, 5)
	if err != nil || !done || !p.Completed || p.CurrentValue != 5 {
		t.Fatalf("reaching target: p=%+v done=%v err=%v", p, done, err)
	}
	firstCompletedAt := *p.CompletedAt

	clock = clock.Add(24 * time.Hour)
	for _, v := range []int{0, 2, 7, 5} {
		p, done, err = tracker.UpdateProgress(ctx, "u1", id, v)
		if err != nil {
			t.Fatalf("UpdateProgress(%d): %v", v, err)
		}
		if done {
			t.Fatalf("UpdateProgress(%d) reported a second completion", v)
		}
		if !p.Completed {
			t.Fatalf("UpdateProgress(%d) revoked completion", v)
		}
		if !p.CompletedAt.Equal(firstCompletedAt) {
			t.Fatalf("completed_at changed from %v to %v", firstCompletedAt, p.CompletedAt)
		}
	}
}

func TestProgressTracker_ConcurrentCompletionSignalsOnce(t *testing.T) {
	db := newSvcDB(t)
	reg, tracker, _ := newEngine(t, db)
	ctx := context.Background()
	id, _ := reg.Resolve("books-read-10")
	if _, err := tracker.Initialize(ctx, "u1", id); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	var signals atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, done, err := tracker.UpdateProgress(ctx, "u1", id, 12)
			if err != nil {
				t.Errorf("UpdateProgress: %v", err)
				return
			}
			if done {
				signals.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := signals.Load(); got != 1 {
		t.Fatalf("expected exactly one completion transition, got %d", got)
	}
}

func TestProgressTracker_MarkNotified(t *testing.T) {
	db := newSvcDB(t)
	reg, tracker, _ := newEngine(t, db)
	ctx := context.Background()
	id, _ := reg.Resolve("books-read-5")
	_, _ = tracker.Initialize(ctx, "u1", id)

	if _, err := tracker.MarkNotified(ctx, "u1", id); !errors.Is(err, ErrAchievementNotFound) {
		t.Fatalf("incomplete row: expected ErrAchievementNotFound, got %v", err)
	}

	_, _, _ = tracker.UpdateProgress(ctx, "u1", id, 5)
	pending, _ := tracker.ListUnnotifiedCompleted(ctx, "u1")
	if len(pending) != 1 {
		t.Fatalf("expected one unnotified row, got %d", len(pending))
	}

	changed, err := tracker.MarkNotified(ctx, "u1", id)
	if err != nil || !changed {
		t.Fatalf("MarkNotified: changed=%v err=%v", changed, err)
	}
	changed, err = tracker.MarkNotified(ctx, "u1", id)
	if err != nil || changed {
		t.Fatalf("repeat MarkNotified: changed=%v err=%v", changed, err)
	}
	pending, _ = tracker.ListUnnotifiedCompleted(ctx, "u1")
	if len(pending) != 0 {
		t.Fatalf("expected no unnotified rows, got %d", len(pending))
	}
	all, _ := tracker.ListForUser(ctx, "u1")
	if len(all) != 1 || !all[0].Completed || !all[0].Notified {
		t.Fatalf("unexpected rows: %+v", all)
	}
}
