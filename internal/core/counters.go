package core

import (
	"sync/atomic"
	"time"
)

type counters struct {
	hits               atomic.Int64
	misses             atomic.Int64
	writes             atomic.Int64
	evictions          atomic.Int64
	prefetchAttempts   atomic.Int64
	compressedItems    atomic.Int64
	compressionSavings atomic.Int64
	totalOperations    atomic.Int64
	totalLatencyNanos  atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() Statistics {
	return Statistics{
		Hits:               c.hits.Load(),
		Misses:             c.misses.Load(),
		Writes:             c.writes.Load(),
		Evictions:          c.evictions.Load(),
		PrefetchAttempts:   c.prefetchAttempts.Load(),
		CompressedItems:    c.compressedItems.Load(),
		CompressionSavings: c.compressionSavings.Load(),
		TotalOperations:    c.totalOperations.Load(),
		TotalLatency:       time.Duration(c.totalLatencyNanos.Load()),
	}
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.writes.Store(0)
	c.evictions.Store(0)
	c.prefetchAttempts.Store(0)
	c.compressedItems.Store(0)
	c.compressionSavings.Store(0)
	c.totalOperations.Store(0)
	c.totalLatencyNanos.Store(0)
}
