package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/adaptcache/go-adapt-cache/config"
	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/internal/janitor"
	"github.com/adaptcache/go-adapt-cache/internal/shared/bytes"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Cache
	logger   *slog.Logger
	cache    *core.Cache
	janitor  janitor.Janitor
	interval time.Duration
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	cache *core.Cache,
	janitor janitor.Janitor,
	interval time.Duration,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		janitor:  janitor,
		interval: interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg != nil && l.cfg.Storage.IsTelemetryLogsEnabled {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var memLimit = "INF"
	if l.cfg.Storage.MemoryLimitBytes > 0 {
		memLimit = bytes.FmtMem(uint64(l.cfg.Storage.MemoryLimitBytes))
	}
	var capacity = "INF"
	if l.cfg.Storage.MaxEntries > 0 {
		capacity = strconv.FormatInt(l.cfg.Storage.EffectiveMaxEntries, 10)
	}

	s := newSampler(l.cache, l.janitor)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}
			memBytes := uint64(l.cache.Mem())
			items := l.cache.Len()

			var hitRatio float64
			if lookups := d.hits + d.misses; lookups > 0 {
				hitRatio = float64(d.hits) / float64(lookups)
			}
			var avgLatency time.Duration
			if d.totalOperations > 0 {
				avgLatency = time.Duration(d.totalLatencyNanos / d.totalOperations)
			}

			l.logger.Info("traffic",
				append(common,
					"hits", int64(d.hits),
					"misses", int64(d.misses),
					"writes", int64(d.writes),
					"evictions", int64(d.evictions),
					"hit_ratio", hitRatio,
					"avg_latency", avgLatency.String(),
				)...,
			)

			if l.cfg.Compression.Enabled() {
				l.logger.Info("compression",
					append(common,
						"compressed_items", int64(d.compressedItems),
						"saved", bytes.FmtMem(d.compressionSavings),
					)...,
				)
			}

			if l.cfg.Persistence.Enabled() {
				l.logger.Info("persistence",
					append(common,
						"flushed", int64(d.writerFlushed),
						"failed", int64(d.writerFailed),
						"dropped", int64(d.writerDropped),
						"prefetches", int64(d.prefetchAttempts),
					)...,
				)
			}

			if l.cfg.Janitor.Enabled() {
				l.logger.Info("janitor",
					append(common,
						"scans", int64(d.janitorScans),
						"sweeps", int64(d.janitorSweeps),
						"swept", int64(d.janitorSwept),
						"forced", int64(d.janitorForced),
					)...,
				)
			}

			l.logger.Info("storage",
				append(common,
					"size", bytes.FmtMem(memBytes),
					"entries", items,
					"mem_limit", memLimit,
					"capacity", capacity,
				)...,
			)
		}
	}
}
