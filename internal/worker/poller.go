// Package worker runs the background loop that drains the achievement event
// queue on a fixed interval.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfquest/achievements-backend/internal/config"
	"github.com/shelfquest/achievements-backend/internal/services"
)

// BatchProcessor consumes one batch of queued events.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, maxBatch int) (int, error)
}

// Poller calls ProcessBatch on every tick until stopped.
type Poller struct {
	processor BatchProcessor
	interval  time.Duration
	batchSize int

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewPoller creates a poller from the worker settings.
func NewPoller(p BatchProcessor, cfg config.WorkerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		processor: p,
		interval:  interval,
		batchSize: cfg.BatchSize,
	}
}

// Start begins polling in the background. Calling Start on a running poller
// is a no-op.
func (w *Poller) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	log.Info().Dur("interval", w.interval).Int("batch_size", w.batchSize).Msg("event worker started")
	go w.run(ctx, w.stopCh, w.doneCh)
}

// Stop halts polling and waits for an in-flight batch to finish.
func (w *Poller) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	log.Info().Msg("event worker stopped")
}

// IsRunning reports whether the loop is active.
func (w *Poller) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce drains a single batch and returns how many events were processed.
func (w *Poller) RunOnce(ctx context.Context) int {
	start := time.Now()
	n, err := w.processor.ProcessBatch(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("event batch failed")
		return 0
	}
	if n > 0 {
		log.Info().Int("processed", n).Dur("duration", time.Since(start)).Msg("event batch completed")
	}
	return n
}

func (w *Poller) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			// Keep draining while full batches come back.
			for w.RunOnce(ctx) >= w.effectiveBatch() {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-stopCh:
					return
				default:
				}
			}
		}
	}
}

func (w *Poller) effectiveBatch() int {
	if w.batchSize <= 0 {
		return services.DefaultBatchSize
	}
	return w.batchSize
}
