package cachedtime

import (
	"context"
	"sync/atomic"
	"time"
)

// Hot paths read timestamps on every operation; a coarse cached clock keeps
// them off the syscall. The resolution is plenty for access ordering and TTL
// checks at production scale. The cache stays off unless enabled, so tests
// observe real time.
const resolution = 10 * time.Millisecond

var (
	nowUnix atomic.Int64
	running atomic.Bool
)

// RunIfEnabled - starts the cached clock when enabled. The clock stops and
// falls back to real time once the context is cancelled. Starting twice is
// a no-op.
func RunIfEnabled(ctx context.Context, enabled bool) {
	if !enabled || !running.CompareAndSwap(false, true) {
		return
	}
	nowUnix.Store(time.Now().UnixNano())
	go func() {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				running.Store(false)
				return
			case tt := <-ticker.C:
				nowUnix.Store(tt.UnixNano())
			}
		}
	}()
}

func Now() time.Time {
	if running.Load() {
		return time.Unix(0, nowUnix.Load())
	}
	return time.Now()
}

func UnixNano() int64 {
	if running.Load() {
		return nowUnix.Load()
	}
	return time.Now().UnixNano()
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
