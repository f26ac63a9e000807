// Package core implements the cache engine: the record table with its tag
// index, policy-ordered eviction, single-flight computation and the
// best-effort bridge to persistent storage.
package core

import (
	"compress/flate"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/adaptcache/go-adapt-cache/config"
	"github.com/adaptcache/go-adapt-cache/internal/compress"
	"github.com/adaptcache/go-adapt-cache/internal/persist"
	"github.com/adaptcache/go-adapt-cache/internal/policy"
	"github.com/adaptcache/go-adapt-cache/internal/record"
	"github.com/adaptcache/go-adapt-cache/internal/shared/cachedtime"
	"github.com/adaptcache/go-adapt-cache/internal/sizeof"
	"github.com/adaptcache/go-adapt-cache/model"
)

var (
	// ErrValueTooLarge rejects a write whose size estimate exceeds the
	// per-value ceiling. Nothing is mutated.
	ErrValueTooLarge = errors.New("value exceeds the per-value size ceiling")

	// ErrDisposed rejects operations on an engine after Dispose.
	ErrDisposed = errors.New("cache is disposed")
)

// Loader - produces the value for a missing key. It runs on the engine's
// lifecycle context, not on the context of the caller that started it, so a
// computation survives its initiator.
type Loader func(ctx context.Context) (model.Value, error)

type Cacher interface {
	Set(key string, value model.Value, opts ...SetOption) error
	Get(ctx context.Context, key string) (model.Value, bool)
	Peek(key string) (model.Value, bool)
	GetOrCompute(ctx context.Context, key string, loader Loader, opts ...SetOption) (model.Value, error)
	Invalidate(key string) error
	InvalidatePattern(pattern string) (int, error)
	InvalidateByTag(tag string) (int, error)
	Keys() []string
	Len() int64
	Mem() int64
	TriggerGarbageCollection() error
	PersistToStorage(ctx context.Context) error
	RestoreFromStorage(ctx context.Context) error
	Statistics() Statistics
	Clear() error
	Dispose() error
}

// Cache respects given ctx.
type Cache struct {
	mu    sync.RWMutex
	table map[string]*record.Record
	tags  map[string]map[string]struct{}
	group *singleflight.Group

	count      atomic.Int64
	memBytes   atomic.Int64
	nextExpiry atomic.Int64 // unix nanos of the nearest known deadline, 0 = none
	disposed   atomic.Bool

	ctx      context.Context
	cfg      *config.Cache
	codec    *compress.Codec
	evicts   policy.Comparator
	adapter  persist.Adapter
	writer   *persist.Writer
	logger   *slog.Logger
	counters *counters
}

// New builds the engine. A nil adapter disables persistence entirely. The
// codec always exists so records restored in compressed form stay readable
// even when write-side compression is off.
func New(ctx context.Context, cfg *config.Cache, adapter persist.Adapter, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	level := flate.DefaultCompression
	if cfg.Compression.Enabled() {
		level = cfg.Compression.Level
	}

	c := &Cache{
		table:    make(map[string]*record.Record),
		tags:     make(map[string]map[string]struct{}),
		group:    &singleflight.Group{},
		ctx:      ctx,
		cfg:      cfg,
		codec:    compress.NewCodec(level),
		evicts:   policy.ForName(policy.Name(cfg.Eviction.Policy)),
		adapter:  adapter,
		logger:   logger,
		counters: newCounters(),
	}

	if adapter != nil {
		opTimeout := config.DefaultOpTimeout
		queueSize := config.DefaultQueueSize
		if cfg.Persistence.Enabled() {
			if cfg.Persistence.OpTimeout > 0 {
				opTimeout = cfg.Persistence.OpTimeout
			}
			if cfg.Persistence.QueueSize > 0 {
				queueSize = cfg.Persistence.QueueSize
			}
		}
		c.writer = persist.NewWriter(ctx, adapter, queueSize, opTimeout, logger)
	}

	return c
}

func (c *Cache) Set(key string, value model.Value, opts ...SetOption) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	defer c.observe(time.Now())

	o := c.applyOptions(opts)
	size := sizeof.Estimate(value)
	if !sizeof.IsReasonable(size, c.cfg.Storage.MaxValueSizeMB) {
		return ErrValueTooLarge
	}

	now := c.now()
	var codec *compress.Codec
	if o.compress && c.cfg.Compression.Enabled() {
		codec = c.codec
	}
	rec := record.New(value, size, o.ttl, o.priority, o.tags, codec, now)

	c.mu.Lock()
	if old, ok := c.table[key]; ok {
		c.dropLocked(key, old)
	}
	c.insertLocked(key, rec)
	victims := c.evictLocked(now, key, true)
	c.mu.Unlock()

	c.counters.writes.Add(1)
	if rec.IsCompressed() {
		c.counters.compressedItems.Add(1)
		c.counters.compressionSavings.Add(rec.Savings())
	}
	c.afterEvict(victims)
	c.enqueuePersist(key, rec)
	return nil
}

func (c *Cache) Get(ctx context.Context, key string) (model.Value, bool) {
	if c.disposed.Load() {
		return model.Nil(), false
	}
	defer c.observe(time.Now())

	return c.fetch(ctx, c.now(), key)
}

// Peek reads without the storage fallback. It still renews the entry and
// counts a hit or a miss.
func (c *Cache) Peek(key string) (model.Value, bool) {
	if c.disposed.Load() {
		return model.Nil(), false
	}
	defer c.observe(time.Now())

	if value, ok := c.lookup(c.now(), key); ok {
		return value, true
	}
	c.counters.misses.Add(1)
	return model.Nil(), false
}

func (c *Cache) GetOrCompute(ctx context.Context, key string, loader Loader, opts ...SetOption) (model.Value, error) {
	if c.disposed.Load() {
		return model.Nil(), ErrDisposed
	}
	defer c.observe(time.Now())

	if value, ok := c.fetch(ctx, c.now(), key); ok {
		return value, nil
	}

	result, err, _ := c.flight().Do(key, func() (any, error) {
		value, err := loader(c.ctx)
		if err != nil {
			return nil, err
		}
		if err = c.Set(key, value, opts...); err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return model.Nil(), err
	}
	return result.(model.Value), nil
}

func (c *Cache) Invalidate(key string) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	defer c.observe(time.Now())

	c.mu.Lock()
	rec, ok := c.table[key]
	if ok {
		c.dropLocked(key, rec)
	}
	c.mu.Unlock()

	if ok {
		c.enqueueRemove(key)
	}
	return nil
}

func (c *Cache) InvalidatePattern(pattern string) (int, error) {
	if c.disposed.Load() {
		return 0, ErrDisposed
	}
	defer c.observe(time.Now())

	matcher, err := compilePattern(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile invalidation pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	var victims []string
	for key, rec := range c.table {
		if matcher.Match(key) {
			c.dropLocked(key, rec)
			victims = append(victims, key)
		}
	}
	c.mu.Unlock()

	for _, key := range victims {
		c.enqueueRemove(key)
	}
	return len(victims), nil
}

func (c *Cache) InvalidateByTag(tag string) (int, error) {
	if c.disposed.Load() {
		return 0, ErrDisposed
	}
	defer c.observe(time.Now())

	c.mu.Lock()
	keys := make([]string, 0, len(c.tags[tag]))
	for key := range c.tags[tag] {
		keys = append(keys, key)
	}
	for _, key := range keys {
		if rec, ok := c.table[key]; ok {
			c.dropLocked(key, rec)
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.enqueueRemove(key)
	}
	return len(keys), nil
}

func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.table))
	for key := range c.table {
		keys = append(keys, key)
	}
	return keys
}

func (c *Cache) Len() int64 { return c.count.Load() }
func (c *Cache) Mem() int64 { return c.memBytes.Load() }

// TriggerGarbageCollection removes every expired record, then trims the
// table down to the configured fraction of capacity in policy order.
func (c *Cache) TriggerGarbageCollection() error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	defer c.observe(time.Now())
	now := c.now()

	limit := c.gcTarget()
	c.mu.Lock()
	victims := c.sweepExpiredLocked(now)
	victims = append(victims, c.trimLocked(now, limit, "", false)...)
	c.mu.Unlock()

	c.afterEvict(victims)
	return nil
}

// SweepExpired removes records whose deadline has passed. Cheap when the
// nearest known deadline is still in the future. Called by the janitor.
func (c *Cache) SweepExpired() int {
	if c.disposed.Load() {
		return 0
	}
	now := c.now()
	if !c.expiryDue(now) {
		return 0
	}

	c.mu.Lock()
	victims := c.sweepExpiredLocked(now)
	c.mu.Unlock()

	c.afterEvict(victims)
	return len(victims)
}

func (c *Cache) PersistToStorage(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if c.adapter == nil {
		return nil
	}
	defer c.observe(time.Now())
	now := c.now()

	type pair struct {
		key string
		rec *record.Record
	}
	c.mu.RLock()
	snapshot := make([]pair, 0, len(c.table))
	for key, rec := range c.table {
		snapshot = append(snapshot, pair{key: key, rec: rec})
	}
	c.mu.RUnlock()

	written, failed := 0, 0
	for _, p := range snapshot {
		if p.rec.Entry().IsExpired(now) {
			continue
		}
		data, err := p.rec.Marshal()
		if err != nil {
			failed++
			continue
		}
		if err = c.adapter.Set(ctx, p.key, data); err != nil {
			failed++
			continue
		}
		written++
	}

	c.logger.Info("cache persisted", "written", written, "failed", failed)
	return nil
}

func (c *Cache) RestoreFromStorage(ctx context.Context) error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	if c.adapter == nil {
		return nil
	}
	defer c.observe(time.Now())
	now := c.now()

	keys, err := c.adapter.Keys(ctx)
	if err != nil {
		c.logger.Warn("storage scan failed", "err", err)
		return nil
	}

	restored, skipped := 0, 0
	for _, key := range keys {
		data, err := c.adapter.Get(ctx, key)
		if err != nil {
			skipped++
			continue
		}
		rec, err := record.Unmarshal(data)
		if err != nil || rec.Entry().IsExpired(now) {
			skipped++
			continue
		}

		c.mu.Lock()
		if _, ok := c.table[key]; ok {
			// The live record is newer than the stored copy.
			c.mu.Unlock()
			skipped++
			continue
		}
		c.insertLocked(key, rec)
		c.mu.Unlock()
		restored++
	}

	c.mu.Lock()
	victims := c.evictLocked(now, "", false)
	c.mu.Unlock()
	c.afterEvict(victims)

	c.logger.Info("cache restored", "restored", restored, "skipped", skipped)
	return nil
}

func (c *Cache) Statistics() Statistics {
	s := c.counters.snapshot()
	s.Items = c.count.Load()
	s.MemoryUsage = c.memBytes.Load()
	s.MemoryLimit = c.cfg.Storage.MemoryLimitBytes
	s.CapacityEntries = c.cfg.Storage.EffectiveMaxEntries
	return s
}

// WriterMetrics - write-behind progress, zero when persistence is off.
func (c *Cache) WriterMetrics() persist.WriterMetrics {
	if c.writer == nil {
		return persist.WriterMetrics{}
	}
	return c.writer.Metrics()
}

// AwaitWriter - blocks until the write-behind worker has drained and stopped,
// bounded by the timeout. The engine's context must already be cancelled for
// the worker to stop. Returns immediately when persistence is off.
func (c *Cache) AwaitWriter(timeout time.Duration) {
	if c.writer != nil {
		c.writer.Wait(timeout)
	}
}

func (c *Cache) Clear() error {
	if c.disposed.Load() {
		return ErrDisposed
	}
	c.wipe(true)
	return nil
}

// Dispose empties the engine and marks it inert. Idempotent. Reads on a
// disposed engine report misses without touching statistics, everything
// else fails ErrDisposed.
func (c *Cache) Dispose() error {
	if !c.disposed.CompareAndSwap(false, true) {
		return nil
	}
	c.wipe(false)
	return nil
}

/**
 * Private API.
 */

func (c *Cache) now() time.Time {
	return cachedtime.Now()
}

func (c *Cache) observe(start time.Time) {
	c.counters.totalOperations.Add(1)
	c.counters.totalLatencyNanos.Add(time.Since(start).Nanoseconds())
}

func (c *Cache) applyOptions(opts []SetOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.ttlSet {
		o.ttl = c.cfg.Storage.DefaultTTL
	}
	return o
}

func (c *Cache) flight() *singleflight.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// fetch - table lookup plus the synchronous storage fallback on a miss.
func (c *Cache) fetch(ctx context.Context, now time.Time, key string) (model.Value, bool) {
	if value, ok := c.lookup(now, key); ok {
		return value, true
	}
	if c.adapter != nil {
		c.counters.prefetchAttempts.Add(1)
		if value, ok := c.restoreOne(ctx, now, key); ok {
			c.counters.hits.Add(1)
			return value, true
		}
	}
	c.counters.misses.Add(1)
	return model.Nil(), false
}

// lookup - reads the table. A hit renews the entry and counts. An expired
// record is removed as an eviction and reported as absent.
func (c *Cache) lookup(now time.Time, key string) (model.Value, bool) {
	c.mu.RLock()
	rec, ok := c.table[key]
	c.mu.RUnlock()
	if !ok {
		return model.Nil(), false
	}

	if rec.Entry().IsExpired(now) {
		c.mu.Lock()
		if cur, still := c.table[key]; still && cur == rec {
			c.dropLocked(key, rec)
			c.counters.evictions.Add(1)
			c.enqueueRemove(key)
		}
		c.mu.Unlock()
		return model.Nil(), false
	}

	value, err := rec.Value(c.codec)
	if err != nil {
		c.logger.Debug("unreadable record dropped", "key", key, "err", err)
		c.mu.Lock()
		if cur, still := c.table[key]; still && cur == rec {
			c.dropLocked(key, rec)
			c.enqueueRemove(key)
		}
		c.mu.Unlock()
		return model.Nil(), false
	}

	rec.Entry().IncrementFrequency()
	rec.Entry().Touch(now)
	c.counters.hits.Add(1)
	return value, true
}

// restoreOne - pulls a single record back from storage on a miss.
func (c *Cache) restoreOne(ctx context.Context, now time.Time, key string) (model.Value, bool) {
	data, err := c.adapter.Get(ctx, key)
	if err != nil {
		return model.Nil(), false
	}
	rec, err := record.Unmarshal(data)
	if err != nil {
		c.logger.Debug("stored record unreadable", "key", key, "err", err)
		return model.Nil(), false
	}
	if rec.Entry().IsExpired(now) {
		c.enqueueRemove(key)
		return model.Nil(), false
	}
	value, err := rec.Value(c.codec)
	if err != nil {
		c.logger.Debug("stored record unreadable", "key", key, "err", err)
		return model.Nil(), false
	}

	rec.Entry().IncrementFrequency()
	rec.Entry().Touch(now)

	c.mu.Lock()
	if _, ok := c.table[key]; ok {
		// A concurrent writer repopulated the key, their record wins.
		c.mu.Unlock()
		return value, true
	}
	c.insertLocked(key, rec)
	victims := c.evictLocked(now, key, true)
	c.mu.Unlock()

	c.afterEvict(victims)
	return value, true
}

func (c *Cache) insertLocked(key string, rec *record.Record) {
	c.table[key] = rec
	for _, tag := range rec.Tags() {
		set, ok := c.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			c.tags[tag] = set
		}
		set[key] = struct{}{}
	}
	c.count.Add(1)
	c.memBytes.Add(rec.Entry().SizeBytes())
	if deadline := rec.Entry().ExpiresAtNano(); deadline != 0 {
		c.lowerNextExpiry(deadline)
	}
}

// dropLocked removes a record from the table and the tag index. The expiry
// watermark is left alone; a stale-low watermark costs one empty sweep.
func (c *Cache) dropLocked(key string, rec *record.Record) {
	delete(c.table, key)
	for _, tag := range rec.Tags() {
		if set, ok := c.tags[tag]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(c.tags, tag)
			}
		}
	}
	c.count.Add(-1)
	c.memBytes.Add(-rec.Entry().SizeBytes())
}

// evictLocked - the pass that runs after each insert: expired first, then
// the capacity trim in policy order.
func (c *Cache) evictLocked(now time.Time, protected string, protect bool) []string {
	victims := c.sweepExpiredLocked(now)
	return append(victims, c.trimLocked(now, c.cfg.Storage.EffectiveMaxEntries, protected, protect)...)
}

// sweepExpiredLocked drops every expired record and refreshes the expiry
// watermark from the survivors.
func (c *Cache) sweepExpiredLocked(now time.Time) []string {
	var victims []string
	var next int64
	for key, rec := range c.table {
		entry := rec.Entry()
		if entry.IsExpired(now) {
			c.dropLocked(key, rec)
			victims = append(victims, key)
			continue
		}
		if deadline := entry.ExpiresAtNano(); deadline != 0 && (next == 0 || deadline < next) {
			next = deadline
		}
	}
	c.nextExpiry.Store(next)
	return victims
}

// trimLocked evicts worst-first in policy order until the table fits limit.
func (c *Cache) trimLocked(now time.Time, limit int64, protected string, protect bool) []string {
	if int64(len(c.table)) <= limit {
		return nil
	}

	type candidate struct {
		key string
		rec *record.Record
	}
	candidates := make([]candidate, 0, len(c.table))
	for key, rec := range c.table {
		if protect && key == protected {
			continue
		}
		candidates = append(candidates, candidate{key: key, rec: rec})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return c.evicts(now, candidates[i].rec, candidates[j].rec)
	})

	var victims []string
	for _, cand := range candidates {
		if int64(len(c.table)) <= limit {
			break
		}
		c.dropLocked(cand.key, cand.rec)
		victims = append(victims, cand.key)
	}
	return victims
}

func (c *Cache) gcTarget() int64 {
	limit := c.cfg.Storage.EffectiveMaxEntries
	factor := c.cfg.Eviction.TrimFactor
	if factor <= 0 || factor > 1 {
		return limit
	}
	return int64(float64(limit) * factor)
}

func (c *Cache) expiryDue(now time.Time) bool {
	deadline := c.nextExpiry.Load()
	return deadline != 0 && now.UnixNano() >= deadline
}

func (c *Cache) lowerNextExpiry(deadline int64) {
	for {
		cur := c.nextExpiry.Load()
		if cur != 0 && cur <= deadline {
			return
		}
		if c.nextExpiry.CompareAndSwap(cur, deadline) {
			return
		}
	}
}

func (c *Cache) afterEvict(victims []string) {
	if len(victims) == 0 {
		return
	}
	c.counters.evictions.Add(int64(len(victims)))
	for _, key := range victims {
		c.enqueueRemove(key)
	}
}

func (c *Cache) enqueuePersist(key string, rec *record.Record) {
	if c.writer == nil {
		return
	}
	data, err := rec.Marshal()
	if err != nil {
		c.logger.Debug("record marshal failed", "key", key, "err", err)
		return
	}
	c.writer.EnqueueSet(key, data)
}

func (c *Cache) enqueueRemove(key string) {
	if c.writer != nil {
		c.writer.EnqueueRemove(key)
	}
}

// wipe empties the table, the tag index and the in-flight group, then
// resets statistics. Only Clear drops the storage mirror too; Dispose
// shuts the instance down and leaves durable data for the next one.
func (c *Cache) wipe(dropStorage bool) {
	c.mu.Lock()
	c.table = make(map[string]*record.Record)
	c.tags = make(map[string]map[string]struct{})
	c.group = &singleflight.Group{}
	c.count.Store(0)
	c.memBytes.Store(0)
	c.nextExpiry.Store(0)
	c.mu.Unlock()

	c.counters.reset()
	if dropStorage && c.writer != nil {
		c.writer.EnqueueClear()
	}
}
