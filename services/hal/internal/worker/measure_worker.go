// services/hal/internal/worker/measure_worker.go
package worker

import (
	"context"
	"errors"
	"time"

	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/util"
)

// MeasureWorker runs Trigger/Collect cycles for adaptors, one cycle per ID
// at a time. Transient decode failures are re-triggered after RetryAfter so
// the sensor's own rate limit has expired by then.
type MeasureWorker struct {
	cfg  halcore.WorkerConfig
	reqQ chan halcore.MeasureReq
	sink chan<- halcore.Result // fan-in sink owned by the caller

	pending map[string]*item
	want    map[string]bool
	items   []*item
	timer   *time.Timer
}

type item struct {
	id        string
	adaptor   halcore.Adaptor
	due       time.Time
	triggered bool
	retries   int
}

// RetryAfter is the default spacing of re-triggers after a transient failure:
// one sensor rate-limit window.
const RetryAfter = 500 * time.Millisecond

func New(cfg halcore.WorkerConfig, sink chan<- halcore.Result) *MeasureWorker {
	if cfg.TriggerTimeout <= 0 {
		// Trigger performs the capture, bounded by the driver at 500 ms.
		cfg.TriggerTimeout = 600 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = RetryAfter
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InputQueueSize <= 0 {
		cfg.InputQueueSize = 16
	}
	return &MeasureWorker{
		cfg:     cfg,
		reqQ:    make(chan halcore.MeasureReq, cfg.InputQueueSize),
		sink:    sink,
		pending: map[string]*item{},
		want:    map[string]bool{},
		timer:   time.NewTimer(time.Hour),
	}
}

func (w *MeasureWorker) Submit(req halcore.MeasureReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
		if req.Prio {
			select {
			case w.reqQ <- req:
				return true
			case <-time.After(5 * time.Millisecond):
			}
		}
		return false
	}
}

func (w *MeasureWorker) Start(ctx context.Context) {
	if !w.timer.Stop() {
		util.DrainTimer(w.timer)
	}
	go func() {
		for {
			next := w.minDue()
			if next.IsZero() {
				util.ResetTimer(w.timer, time.Hour)
			} else {
				util.ResetTimer(w.timer, time.Until(next))
			}
			select {
			case <-ctx.Done():
				return
			case req := <-w.reqQ:
				if _, ok := w.pending[req.ID]; ok {
					if req.Prio {
						w.want[req.ID] = true
					}
					continue
				}
				it := &item{id: req.ID, adaptor: req.Adaptor}
				if w.trigger(ctx, it) {
					w.pending[it.id] = it
					w.items = append(w.items, it)
				}
			case <-w.timer.C:
				now := time.Now()
				var keep []*item
				for _, it := range w.items {
					if now.Before(it.due) || w.step(ctx, it, now) {
						keep = append(keep, it)
					}
				}
				w.items = keep
			}
		}
	}()
}

// trigger starts a cycle. It reports whether the item stays scheduled.
func (w *MeasureWorker) trigger(ctx context.Context, it *item) bool {
	tctx, cancel := context.WithTimeout(ctx, w.cfg.TriggerTimeout)
	after, err := it.adaptor.Trigger(tctx)
	cancel()
	switch {
	case err == nil:
		it.triggered = true
		it.due = time.Now().Add(after)
		return true
	case errcode.Retryable(err) && it.retries < w.cfg.MaxRetries:
		it.retries++
		it.triggered = false
		it.due = time.Now().Add(w.cfg.RetryBackoff)
		return true
	default:
		w.emit(halcore.Result{ID: it.id, Err: err})
		return false
	}
}

// step services one due item. It reports whether the item stays scheduled.
func (w *MeasureWorker) step(ctx context.Context, it *item, now time.Time) bool {
	if !it.triggered {
		if w.trigger(ctx, it) {
			return true
		}
		return w.done(ctx, it)
	}
	cctx, cancel := context.WithTimeout(ctx, w.cfg.CollectTimeout)
	s, err := it.adaptor.Collect(cctx)
	cancel()
	switch {
	case err == nil:
		w.emit(halcore.Result{ID: it.id, Sample: s})
		return w.done(ctx, it)
	case errors.Is(err, halcore.ErrNotReady) && it.retries < w.cfg.MaxRetries:
		it.retries++
		it.due = now.Add(w.cfg.RetryBackoff)
		return true
	default:
		w.emit(halcore.Result{ID: it.id, Err: err})
		return w.done(ctx, it)
	}
}

// done ends a cycle, or starts a fresh one if a priority request arrived
// while the previous cycle was running.
func (w *MeasureWorker) done(ctx context.Context, it *item) bool {
	delete(w.pending, it.id)
	if !w.want[it.id] {
		return false
	}
	delete(w.want, it.id)
	it.retries = 0
	if w.trigger(ctx, it) {
		w.pending[it.id] = it
		return true
	}
	return false
}

func (w *MeasureWorker) emit(r halcore.Result) {
	w.sink <- r
}

func (w *MeasureWorker) minDue() time.Time {
	var earliest time.Time
	for _, it := range w.items {
		if earliest.IsZero() || it.due.Before(earliest) {
			earliest = it.due
		}
	}
	return earliest
}
