package persist

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/shared/queue"
)

type opKind uint8

const (
	opSet opKind = iota
	opRemove
	opClear
)

type op struct {
	kind opKind
	key  string
	data []byte
}

// WriterMetrics - point-in-time snapshot of write-behind progress.
type WriterMetrics struct {
	Flushed int64
	Failed  int64
	Dropped int64
}

// Writer - applies storage writes behind the cache instead of on the caller's
// path. Operations land in a bounded ring, a single goroutine drains it in
// order. When the ring is full the operation is dropped and counted, storage
// is best-effort by contract.
type Writer struct {
	ctx     context.Context
	adapter Adapter
	ring    *queue.Ring[op]
	notify  chan struct{}
	done    chan struct{}
	timeout time.Duration
	logger  *slog.Logger

	flushed atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewWriter(ctx context.Context, adapter Adapter, queueSize int, opTimeout time.Duration, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		ctx:     ctx,
		adapter: adapter,
		ring:    queue.NewRing[op](queueSize),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		timeout: opTimeout,
		logger:  logger,
	}
	go w.run()
	return w
}

func (w *Writer) EnqueueSet(key string, data []byte) {
	w.enqueue(op{kind: opSet, key: key, data: data})
}

func (w *Writer) EnqueueRemove(key string) {
	w.enqueue(op{kind: opRemove, key: key})
}

func (w *Writer) EnqueueClear() {
	w.enqueue(op{kind: opClear})
}

// Pending reports how many operations are still queued.
func (w *Writer) Pending() int {
	return w.ring.Len()
}

// Wait blocks until the worker has stopped after its context was cancelled,
// or until the timeout passes. Callers use it to flush before closing the
// underlying adapter.
func (w *Writer) Wait(timeout time.Duration) {
	after := time.NewTimer(timeout)
	defer after.Stop()
	select {
	case <-w.done:
	case <-after.C:
	}
}

func (w *Writer) Metrics() WriterMetrics {
	return WriterMetrics{
		Flushed: w.flushed.Load(),
		Failed:  w.failed.Load(),
		Dropped: w.dropped.Load(),
	}
}

/**
 * Private API.
 */

func (w *Writer) enqueue(o op) {
	if !w.ring.TryPush(o) {
		w.dropped.Add(1)
		w.logger.Debug("write-behind queue full, operation dropped", "key", o.key)
		return
	}
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			// Last chance for whatever is still queued.
			w.drain()
			return
		case <-w.notify:
			w.drain()
		}
	}
}

func (w *Writer) drain() {
	for {
		o, ok := w.ring.TryPop()
		if !ok {
			return
		}
		w.apply(o)
	}
}

func (w *Writer) apply(o op) {
	// Background, not w.ctx: shutdown must not abort a write mid-frame,
	// the per-op deadline bounds the work instead.
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	switch o.kind {
	case opSet:
		err = w.adapter.Set(ctx, o.key, o.data)
	case opRemove:
		err = w.adapter.Remove(ctx, o.key)
	case opClear:
		err = w.adapter.Clear(ctx)
	}
	if err != nil {
		w.failed.Add(1)
		w.logger.Debug("write-behind operation failed", "key", o.key, "err", err)
		return
	}
	w.flushed.Add(1)
}
