package janitor

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/adaptcache/go-adapt-cache/config"
	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/internal/shared/rate"
)

var ErrJanitorNotResponded = errors.New("janitor not responded")

type Janitor interface {
	ForceGC(timeout time.Duration) error
	JanitorMetrics() (scans, sweeps, swept, forced int64)
	Close() error
}

// JanitorWorker wakes up at the configured pace and removes expired records.
// The periodic path only sweeps deadlines; the capacity trim runs solely on
// ForceGC so a hot cache is not shaved below its bound in the background.
type JanitorWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.JanitorCfg
	logger   *slog.Logger
	cache    *core.Cache
	pacer    *rate.Pacer
	counters *janitorCounters
	sweepCh  chan struct{}
	forceCh  chan struct{}
}

func New(
	ctx context.Context,
	cfg *config.JanitorCfg,
	logger *slog.Logger,
	cache *core.Cache,
) Janitor {
	if !cfg.Enabled() {
		return &NoOpJanitor{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&JanitorWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		pacer:    rate.NewPacer(ctx, cfg.CallsPerSec),
		counters: newJanitorCounters(),
		sweepCh:  make(chan struct{}),
		forceCh:  make(chan struct{}),
	}).run()
}

// ForceGC asks the worker for a full garbage collection: expired sweep plus
// the trim to the configured capacity fraction. It waits for the worker to
// accept the request, not for the collection to finish.
func (w *JanitorWorker) ForceGC(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	select {
	case <-w.ctx.Done():
	case w.forceCh <- struct{}{}:
	case <-after.C:
		return ErrJanitorNotResponded
	}
	return nil
}

func (w *JanitorWorker) JanitorMetrics() (scans, sweeps, swept, forced int64) {
	return w.counters.snapshot()
}

func (w *JanitorWorker) Close() error {
	w.cancel()
	return nil
}

func (w *JanitorWorker) run() *JanitorWorker {
	w.logger.Info("janitor is running", "calls_per_sec", w.cfg.CallsPerSec)

	go func() {
		defer w.logger.Info("janitor is stopped")
		var wg sync.WaitGroup
		for i := 0; i <= runtime.GOMAXPROCS(0); i++ {
			wg.Go(w.consumer)
		}
		wg.Go(w.provider)
		wg.Wait()
	}()

	return w
}

// provider - paces the sweep signal. A busy consumer set means the tick is
// simply skipped, expiry work is never allowed to queue up.
func (w *JanitorWorker) provider() {
	for range w.pacer.C() {
		w.counters.scans.Add(1)
		select {
		case w.sweepCh <- struct{}{}:
		case <-w.ctx.Done():
			return
		default:
		}
	}
}

// consumer - runs the cheap expired sweep on each signal and the full
// collection on demand.
func (w *JanitorWorker) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.sweepCh:
			if swept := w.cache.SweepExpired(); swept > 0 {
				w.counters.sweeps.Add(1)
				w.counters.swept.Add(int64(swept))
			}
		case <-w.forceCh:
			if err := w.cache.TriggerGarbageCollection(); err == nil {
				w.counters.forced.Add(1)
			}
		}
	}
}
