package rate

import (
	"context"

	"go.uber.org/ratelimit"
)

// Pacer - turns a per-second limit into a channel a worker can select on.
// The limiter spreads ticks evenly across the second; the small buffer lets
// a slow consumer catch up without accumulating a burst.
type Pacer struct {
	ch  chan struct{}
	lim ratelimit.Limiter
}

// NewPacer - starts a pacer producing perSec ticks per second until the
// context is cancelled, then the channel is closed.
func NewPacer(ctx context.Context, perSec int) *Pacer {
	if perSec < 1 {
		perSec = 1
	}
	buf := perSec / 10
	if buf < 1 {
		buf = 1
	}
	p := &Pacer{
		ch:  make(chan struct{}, buf),
		lim: ratelimit.New(perSec),
	}
	go p.feed(ctx)
	return p
}

func (p *Pacer) feed(ctx context.Context) {
	defer close(p.ch)
	for {
		p.lim.Take()
		select {
		case <-ctx.Done():
			return
		case p.ch <- struct{}{}:
		}
	}
}

// C - the tick channel. It is closed after the pacer's context is cancelled.
func (p *Pacer) C() <-chan struct{} {
	return p.ch
}

// Take - blocks until the next tick.
func (p *Pacer) Take() {
	<-p.ch
}
