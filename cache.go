package adaptcache

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/adaptcache/go-adapt-cache/config"
	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/internal/janitor"
	"github.com/adaptcache/go-adapt-cache/internal/persist"
	"github.com/adaptcache/go-adapt-cache/internal/shared/cachedtime"
	"github.com/adaptcache/go-adapt-cache/internal/telemetry"
)

type AdaptCache interface {
	core.Cacher
	janitor.Janitor
	telemetry.Logger
	io.Closer
}

type Cache struct {
	core.Cacher
	janitor.Janitor
	telemetry.Logger

	engine  *core.Cache
	adapter persist.Adapter
	drain   time.Duration
	cls     context.CancelFunc
	closed  atomic.Bool
}

// New builds a cache from configuration. A persistence backend that cannot be
// constructed is logged and disabled, the cache itself always comes up.
func New(ctx context.Context, cfg *config.Cache, logger *slog.Logger) *Cache {
	if cfg == nil {
		cfg = &config.Cache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.AdjustConfig()
	return NewWithAdapter(ctx, cfg, buildAdapter(cfg, logger), logger)
}

// NewWithAdapter builds a cache over a caller-supplied storage adapter. A nil
// adapter disables persistence.
func NewWithAdapter(ctx context.Context, cfg *config.Cache, adapter persist.Adapter, logger *slog.Logger) *Cache {
	if cfg == nil {
		cfg = &config.Cache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.AdjustConfig()

	ctx, cancel := context.WithCancel(ctx)
	cachedtime.RunIfEnabled(ctx, cfg.Storage.CacheTimeEnabled)

	engine := core.New(ctx, cfg, adapter, logger)
	cleaner := janitor.New(ctx, cfg.Janitor, logger, engine)
	telemeter := telemetry.New(ctx, cfg, logger, engine, cleaner, cfg.Storage.TelemetryLogsInterval)

	drain := config.DefaultOpTimeout
	if cfg.Persistence.Enabled() {
		drain = cfg.Persistence.OpTimeout
	}

	return &Cache{
		Cacher:  engine,
		Janitor: cleaner,
		Logger:  telemeter,
		engine:  engine,
		adapter: adapter,
		drain:   drain,
		cls:     cancel,
	}
}

// Close disposes the cache, stops the workers and flushes the write-behind
// queue before releasing the storage adapter. Idempotent.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = c.Dispose()
	c.cls()
	c.engine.AwaitWriter(c.drain)
	if closer, ok := c.adapter.(io.Closer); ok {
		_ = closer.Close()
	}
	return nil
}

/**
 * Private API.
 */

func buildAdapter(cfg *config.Cache, logger *slog.Logger) persist.Adapter {
	if !cfg.Persistence.Enabled() {
		return nil
	}
	switch cfg.Persistence.Backend {
	case config.BackendMemory:
		return persist.NewMemoryAdapter()
	case config.BackendFilesystem:
		adapter, err := persist.NewFileAdapter(cfg.Persistence.Dir, cfg.Persistence.Gzip)
		if err != nil {
			logger.Warn("filesystem persistence disabled", "dir", cfg.Persistence.Dir, "err", err)
			return nil
		}
		return adapter
	case config.BackendSQLite:
		adapter, err := persist.NewSQLiteAdapter(cfg.Persistence.DSN)
		if err != nil {
			logger.Warn("sqlite persistence disabled", "dsn", cfg.Persistence.DSN, "err", err)
			return nil
		}
		return adapter
	default:
		logger.Warn("unknown persistence backend, persistence disabled", "backend", cfg.Persistence.Backend)
		return nil
	}
}
