package store

import (
	"context"
	"sync"
	"time"

	"graphview/pkg/logging"
	"graphview/pkg/model"
)

// FlushFunc receives the outcome of one coalesced reconciliation pass
type FlushFunc func(cs ChangeSet, diags []Diagnostic)

// Batcher coalesces rapid successive deltas into a single reconciliation
// pass. Batches queued within the quiet period are applied together, in
// arrival order, exactly once; a max-wait bound keeps a steady stream of
// deltas from starving the flush. A boolean guard suppresses re-entrant
// reconciliation while one pass is in flight, so each flush triggers at
// most one downstream render.
type Batcher struct {
	store       *Store
	quietPeriod time.Duration
	maxWait     time.Duration
	onFlush     FlushFunc

	mu       sync.Mutex
	pending  []model.Delta
	applying bool
	input    chan model.Delta
	done     chan struct{}
}

// NewBatcher creates a batcher over the given store
func NewBatcher(s *Store, quietPeriod, maxWait time.Duration, onFlush FlushFunc) *Batcher {
	return &Batcher{
		store:       s,
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
		onFlush:     onFlush,
		input:       make(chan model.Delta, 100),
		done:        make(chan struct{}),
	}
}

// Start begins processing deltas until the context is cancelled
func (b *Batcher) Start(ctx context.Context) {
	go b.run(ctx)
}

// Enqueue queues a delta for the next coalesced pass. Deltas enqueued
// after shutdown are dropped.
func (b *Batcher) Enqueue(d model.Delta) {
	if d.Empty() {
		return
	}
	if d.ReceivedAt.IsZero() {
		d.ReceivedAt = time.Now()
	}
	select {
	case b.input <- d:
	case <-b.done:
	}
}

// Done is closed once the final flush has completed
func (b *Batcher) Done() <-chan struct{} {
	return b.done
}

func (b *Batcher) run(ctx context.Context) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
	)

	stopTimers := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	flush := func() {
		b.mu.Lock()
		if len(b.pending) == 0 || b.applying {
			b.mu.Unlock()
			return
		}
		b.applying = true
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()

		stopTimers()
		logging.Debug("applying coalesced deltas", "batches", len(batch))

		cs, diags := b.store.Apply(batch)
		if b.onFlush != nil {
			b.onFlush(cs, diags)
		}

		b.mu.Lock()
		b.applying = false
		b.mu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(b.done)
			return

		case d := <-b.input:
			b.mu.Lock()
			b.pending = append(b.pending, d)
			b.mu.Unlock()

			if timer == nil {
				timer = time.NewTimer(b.quietPeriod)
			} else {
				// Drain a tick that raced this input so Reset arms
				// a clean quiet period instead of flushing early
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(b.quietPeriod)
			}
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(b.maxWait)
			}

		case <-timerC(timer):
			flush()

		case <-timerC(maxWaitTimer):
			flush()
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t != nil {
		return t.C
	}
	return nil
}
