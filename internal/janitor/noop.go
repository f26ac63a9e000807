package janitor

import "time"

// NoOpJanitor is a stub which is returned when the janitor is disabled.
type NoOpJanitor struct{}

// ForceGC - has no effect, always returns nil.
func (NoOpJanitor) ForceGC(time.Duration) error {
	return nil
}

// JanitorMetrics - always returns zeroes.
func (NoOpJanitor) JanitorMetrics() (scans, sweeps, swept, forced int64) {
	return 0, 0, 0, 0
}

// Close - has no effect, always returns nil.
func (NoOpJanitor) Close() error {
	return nil
}
