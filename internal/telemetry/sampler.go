package telemetry

import (
	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/internal/janitor"
)

type sampler struct {
	cache   *core.Cache
	janitor janitor.Janitor
}

func newSampler(c *core.Cache, j janitor.Janitor) sampler {
	return sampler{cache: c, janitor: j}
}

// snapshot holds cumulative counters (monotonic until a reset).
type snapshot struct {
	hits               uint64
	misses             uint64
	writes             uint64
	evictions          uint64
	prefetchAttempts   uint64
	compressedItems    uint64
	compressionSavings uint64
	totalOperations    uint64
	totalLatencyNanos  uint64

	janitorScans  uint64
	janitorSweeps uint64
	janitorSwept  uint64
	janitorForced uint64

	writerFlushed uint64
	writerFailed  uint64
	writerDropped uint64
}

func (s sampler) snapshot() snapshot {
	stats := s.cache.Statistics()
	scans, sweeps, swept, forced := s.janitor.JanitorMetrics()
	wm := s.cache.WriterMetrics()

	return snapshot{
		hits:               uint64(max(stats.Hits, 0)),
		misses:             uint64(max(stats.Misses, 0)),
		writes:             uint64(max(stats.Writes, 0)),
		evictions:          uint64(max(stats.Evictions, 0)),
		prefetchAttempts:   uint64(max(stats.PrefetchAttempts, 0)),
		compressedItems:    uint64(max(stats.CompressedItems, 0)),
		compressionSavings: uint64(max(stats.CompressionSavings, 0)),
		totalOperations:    uint64(max(stats.TotalOperations, 0)),
		totalLatencyNanos:  uint64(max(stats.TotalLatency.Nanoseconds(), 0)),

		janitorScans:  uint64(max(scans, 0)),
		janitorSweeps: uint64(max(sweeps, 0)),
		janitorSwept:  uint64(max(swept, 0)),
		janitorForced: uint64(max(forced, 0)),

		writerFlushed: uint64(max(wm.Flushed, 0)),
		writerFailed:  uint64(max(wm.Failed, 0)),
		writerDropped: uint64(max(wm.Dropped, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		hits:               delta(prev.hits, cur.hits),
		misses:             delta(prev.misses, cur.misses),
		writes:             delta(prev.writes, cur.writes),
		evictions:          delta(prev.evictions, cur.evictions),
		prefetchAttempts:   delta(prev.prefetchAttempts, cur.prefetchAttempts),
		compressedItems:    delta(prev.compressedItems, cur.compressedItems),
		compressionSavings: delta(prev.compressionSavings, cur.compressionSavings),
		totalOperations:    delta(prev.totalOperations, cur.totalOperations),
		totalLatencyNanos:  delta(prev.totalLatencyNanos, cur.totalLatencyNanos),

		janitorScans:  delta(prev.janitorScans, cur.janitorScans),
		janitorSweeps: delta(prev.janitorSweeps, cur.janitorSweeps),
		janitorSwept:  delta(prev.janitorSwept, cur.janitorSwept),
		janitorForced: delta(prev.janitorForced, cur.janitorForced),

		writerFlushed: delta(prev.writerFlushed, cur.writerFlushed),
		writerFailed:  delta(prev.writerFailed, cur.writerFailed),
		writerDropped: delta(prev.writerDropped, cur.writerDropped),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
