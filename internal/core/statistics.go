package core

import "time"

// Statistics - point-in-time view of engine activity. Counters accumulate
// until Clear or Dispose resets them, gauges reflect the snapshot moment.
type Statistics struct {
	Hits               int64
	Misses             int64
	Writes             int64
	Evictions          int64
	PrefetchAttempts   int64
	CompressedItems    int64
	CompressionSavings int64
	TotalOperations    int64
	TotalLatency       time.Duration

	Items           int64
	MemoryUsage     int64
	MemoryLimit     int64
	CapacityEntries int64
}

// HitRatio - hits over lookups, zero when nothing has been looked up yet.
func (s Statistics) HitRatio() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}

// AverageLatency - mean wall-clock time per tracked operation.
func (s Statistics) AverageLatency() time.Duration {
	if s.TotalOperations == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalOperations)
}
