package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestPacer_Ticks verifies that ticks arrive roughly at the requested rate.
func TestPacer_Ticks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPacer(ctx, 100)

	start := time.Now()
	for i := 0; i < 10; i++ {
		p.Take()
	}
	elapsed := time.Since(start)

	// 10 ticks at 100/sec should take around 100ms; allow generous slack.
	require.Less(t, elapsed, 2*time.Second)
}

// TestPacer_ChannelClosesOnCancel verifies teardown closes the tick channel.
func TestPacer_ChannelClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPacer(ctx, 1000)

	<-p.C()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-p.C():
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

// TestPacer_MinimumRate verifies the rate floor of one tick per second.
func TestPacer_MinimumRate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPacer(ctx, 0)

	select {
	case <-p.C():
	case <-time.After(3 * time.Second):
		t.Fatal("no tick within three seconds at the minimum rate")
	}
}
