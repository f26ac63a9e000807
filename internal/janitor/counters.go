package janitor

import "sync/atomic"

type janitorCounters struct {
	scans  atomic.Int64
	sweeps atomic.Int64
	swept  atomic.Int64
	forced atomic.Int64
}

func newJanitorCounters() *janitorCounters {
	return &janitorCounters{
		scans:  atomic.Int64{},
		sweeps: atomic.Int64{},
		swept:  atomic.Int64{},
		forced: atomic.Int64{},
	}
}

func (c *janitorCounters) snapshot() (scans, sweeps, swept, forced int64) {
	return c.scans.Load(), c.sweeps.Load(), c.swept.Load(), c.forced.Load()
}
