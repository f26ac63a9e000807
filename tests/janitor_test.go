package tests

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adaptcache/go-adapt-cache"
	"github.com/adaptcache/go-adapt-cache/model"
	"github.com/adaptcache/go-adapt-cache/tests/help"
)

func TestJanitorRemovesExpiredInBackground(t *testing.T) {
	cache := adaptcache.New(t.Context(), help.JanitorCfg(), help.Logger())

	require.NoError(t, cache.Set("keeper", model.Text("v")))
	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Set(fmt.Sprintf("short_%d", i), model.Text("v"), adaptcache.WithTTL(30*time.Millisecond)))
	}
	require.Equal(t, int64(6), cache.Len())

	// No reads happen, the janitor alone has to reclaim the records.
	require.Eventually(t, func() bool {
		return cache.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, sweeps, swept, _ := cache.JanitorMetrics()
	require.Positive(t, sweeps)
	require.Equal(t, int64(5), swept)
}

func TestJanitorForceGCTrimsToTarget(t *testing.T) {
	cfg := help.JanitorCfg()
	cfg.Storage.MaxEntries = 10
	cfg.AdjustConfig()
	cache := adaptcache.New(t.Context(), cfg, help.Logger())

	for i := 0; i < 10; i++ {
		require.NoError(t, cache.Set(fmt.Sprintf("key_%d", i), model.Text("v")))
	}
	require.Equal(t, int64(10), cache.Len())

	require.NoError(t, cache.ForceGC(time.Second))

	require.Eventually(t, func() bool {
		return cache.Len() <= 9
	}, 2*time.Second, 10*time.Millisecond)
}

func TestJanitorDisabledLeavesExpiredUntilRead(t *testing.T) {
	cache := adaptcache.New(t.Context(), help.Cfg(), help.Logger())

	require.NoError(t, cache.Set("short", model.Text("v"), adaptcache.WithTTL(30*time.Millisecond)))
	time.Sleep(60 * time.Millisecond)

	// Nothing sweeps in the background without the janitor.
	require.Equal(t, int64(1), cache.Len())

	// The read path still refuses the dead record and drops it.
	_, ok := cache.Get(t.Context(), "short")
	require.False(t, ok)
	require.Zero(t, cache.Len())

	// ForceGC on the disabled janitor is a quiet no-op.
	require.NoError(t, cache.ForceGC(time.Nanosecond))
}
