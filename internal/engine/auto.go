package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/service"
)

// autoQueueSize bounds how many review events can be pending at once.
const autoQueueSize = 64

// AutoRunner processes single cards after review events. Work is deferred
// onto one background worker so processing never reenters the event that
// triggered it; the worker handles cards strictly one at a time, in the
// order they were reviewed. Lifecycle is explicit: Start on session open,
// Stop on session close.
type AutoRunner struct {
	engine   *Engine
	notifier service.Notifier
	queue    chan int64
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// NewAutoRunner creates a runner over the given engine. notifier may be nil
// when notifications are disabled at the call site.
func NewAutoRunner(engine *Engine, notifier service.Notifier) *AutoRunner {
	return &AutoRunner{
		engine:   engine,
		notifier: notifier,
		queue:    make(chan int64, autoQueueSize),
	}
}

// Start launches the single worker goroutine.
func (r *AutoRunner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-r.queue:
				if !ok {
					return
				}
				r.process(ctx, id)
			}
		}
	}()
}

// CardReviewed queues a card for deferred processing. It never blocks the
// reviewing caller: when the queue is full the card is dropped and will be
// picked up by the next bulk run instead. Events racing a Stop are dropped
// the same way rather than sent on the closed queue.
func (r *AutoRunner) CardReviewed(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.queue <- id:
	default:
		slog.Warn("Auto-run queue full, dropping card", "card", id)
	}
}

// Stop closes the queue and waits for in-flight work to finish.
func (r *AutoRunner) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.queue)
	})
	r.wg.Wait()
}

// process applies the rules to one reviewed card. Auto-run is re-checked
// per card so a settings change takes effect immediately, and cards that
// lost the leech tag since the event are left alone.
func (r *AutoRunner) process(ctx context.Context, id int64) {
	cfg := r.engine.cfg
	if !cfg.AutoRunEnabled {
		return
	}

	card, err := r.engine.col.GetCard(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Error("Auto-run failed to load card", "card", id, "error", err)
		return
	}

	note, err := r.engine.col.GetNote(ctx, card.NoteID)
	if err != nil {
		slog.Error("Auto-run failed to load note", "card", id, "error", err)
		return
	}
	if !note.HasTag(cfg.LeechTag) {
		return
	}

	summary, err := r.engine.ApplyRulesToCard(ctx, card, false)
	if err != nil {
		slog.Error("Auto-run failed to process card", "card", id, "error", err)
		return
	}
	if summary.Empty() {
		return
	}

	slog.Info("Auto-processed leech card", "card", id, "summary", summary)
	if cfg.ShowAutoNotifications && r.notifier != nil {
		r.notifier.Notify(id, summary)
	}
}
