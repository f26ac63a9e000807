package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adaptcache/go-adapt-cache/config"
	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache(t *testing.T, maxEntries int64) (*core.Cache, context.Context) {
	t.Helper()

	cfg := &config.Cache{
		Storage:  config.StorageCfg{MaxEntries: maxEntries},
		Eviction: config.EvictionCfg{Policy: "lru"},
	}
	cfg.AdjustConfig()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cache := core.New(ctx, cfg, nil, discardLogger())
	t.Cleanup(func() { _ = cache.Dispose() })
	return cache, ctx
}

// TestJanitor_SweepsExpiredRecords checks that the periodic path removes
// records past their deadline without being asked.
func TestJanitor_SweepsExpiredRecords(t *testing.T) {
	cache, ctx := testCache(t, 100)

	require.NoError(t, cache.Set("stays", model.Text("v")))
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(key, model.Text("v"), core.WithTTL(30*time.Millisecond)))
	}
	require.Equal(t, int64(4), cache.Len())

	j := New(ctx, &config.JanitorCfg{CallsPerSec: 100}, discardLogger(), cache)
	defer func() { _ = j.Close() }()

	require.Eventually(t, func() bool {
		return cache.Len() == 1
	}, time.Second, 5*time.Millisecond)

	scans, sweeps, swept, forced := j.JanitorMetrics()
	require.Positive(t, scans)
	require.Positive(t, sweeps)
	require.Equal(t, int64(3), swept)
	require.Zero(t, forced)
}

// TestJanitor_PeriodicPathLeavesCapacityAlone checks that the background
// sweep never trims live records, even when the table sits at its bound.
func TestJanitor_PeriodicPathLeavesCapacityAlone(t *testing.T) {
	cache, ctx := testCache(t, 10)

	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		require.NoError(t, cache.Set(key, model.Text("v")))
	}
	require.Equal(t, int64(10), cache.Len())

	j := New(ctx, &config.JanitorCfg{CallsPerSec: 200}, discardLogger(), cache)
	defer func() { _ = j.Close() }()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int64(10), cache.Len())
}

// TestJanitor_ForceGC checks that an explicit request trims the table to the
// collection target.
func TestJanitor_ForceGC(t *testing.T) {
	cache, ctx := testCache(t, 10)

	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		require.NoError(t, cache.Set(key, model.Text("v")))
	}

	j := New(ctx, &config.JanitorCfg{CallsPerSec: 10}, discardLogger(), cache)
	defer func() { _ = j.Close() }()

	require.NoError(t, j.ForceGC(time.Second))

	require.Eventually(t, func() bool {
		return cache.Len() <= 9
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, _, _, forced := j.JanitorMetrics()
		return forced == 1
	}, time.Second, 5*time.Millisecond)
}

// TestJanitor_ForceGCTimeout checks the error when no consumer picks the
// request up in time.
func TestJanitor_ForceGCTimeout(t *testing.T) {
	w := &JanitorWorker{
		ctx:     context.Background(),
		forceCh: make(chan struct{}),
	}

	err := w.ForceGC(30 * time.Millisecond)
	require.ErrorIs(t, err, ErrJanitorNotResponded)
}

// TestJanitor_ForceGCAfterClose checks that a stopped janitor does not block
// the caller.
func TestJanitor_ForceGCAfterClose(t *testing.T) {
	cache, ctx := testCache(t, 10)

	j := New(ctx, &config.JanitorCfg{CallsPerSec: 10}, discardLogger(), cache)
	require.NoError(t, j.Close())

	require.NoError(t, j.ForceGC(30*time.Millisecond))
}

func TestNoOpJanitor(t *testing.T) {
	cache, ctx := testCache(t, 10)

	var disabled *config.JanitorCfg
	j := New(ctx, disabled, discardLogger(), cache)
	require.IsType(t, &NoOpJanitor{}, j)

	require.NoError(t, j.ForceGC(time.Nanosecond))
	scans, sweeps, swept, forced := j.JanitorMetrics()
	require.Zero(t, scans)
	require.Zero(t, sweeps)
	require.Zero(t, swept)
	require.Zero(t, forced)
	require.NoError(t, j.Close())
}
