package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingAdapter struct{ err error }

func (f *failingAdapter) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f *failingAdapter) Set(context.Context, string, []byte) error   { return f.err }
func (f *failingAdapter) Remove(context.Context, string) error        { return f.err }
func (f *failingAdapter) Clear(context.Context) error                 { return f.err }
func (f *failingAdapter) Keys(context.Context) ([]string, error)      { return nil, f.err }

// blockingAdapter parks every Set until release is closed, so tests can hold
// the worker mid-operation.
type blockingAdapter struct {
	inner   *MemoryAdapter
	started chan struct{}
	release chan struct{}
}

func (b *blockingAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return b.inner.Get(ctx, key)
}

func (b *blockingAdapter) Set(ctx context.Context, key string, data []byte) error {
	b.started <- struct{}{}
	<-b.release
	return b.inner.Set(ctx, key, data)
}

func (b *blockingAdapter) Remove(ctx context.Context, key string) error { return b.inner.Remove(ctx, key) }
func (b *blockingAdapter) Clear(ctx context.Context) error              { return b.inner.Clear(ctx) }
func (b *blockingAdapter) Keys(ctx context.Context) ([]string, error)   { return b.inner.Keys(ctx) }

// TestWriter_FlushesSetOperations - checks that queued writes reach the adapter in the background.
func TestWriter_FlushesSetOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := NewMemoryAdapter()
	writer := NewWriter(ctx, adapter, 16, time.Second, discardLogger())

	writer.EnqueueSet("a", []byte("1"))
	writer.EnqueueSet("b", []byte("2"))

	require.Eventually(t, func() bool {
		return writer.Metrics().Flushed == 2
	}, time.Second, 5*time.Millisecond)

	got, err := adapter.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
	require.Zero(t, writer.Pending())
}

// TestWriter_RemoveAndClear - checks that removals and clears drain through the same queue.
func TestWriter_RemoveAndClear(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := NewMemoryAdapter()
	require.NoError(t, adapter.Set(ctx, "seeded", []byte("x")))

	writer := NewWriter(ctx, adapter, 16, time.Second, discardLogger())
	writer.EnqueueRemove("seeded")
	writer.EnqueueSet("fresh", []byte("y"))
	writer.EnqueueClear()

	require.Eventually(t, func() bool {
		return writer.Metrics().Flushed == 3
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, adapter.Len())
}

// TestWriter_CountsFailures - checks that adapter errors are swallowed but counted.
func TestWriter_CountsFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := NewWriter(ctx, &failingAdapter{err: errors.New("disk on fire")}, 16, time.Second, discardLogger())
	writer.EnqueueSet("doomed", []byte("x"))

	require.Eventually(t, func() bool {
		return writer.Metrics().Failed == 1
	}, time.Second, 5*time.Millisecond)
	require.Zero(t, writer.Metrics().Flushed)
}

// TestWriter_DropsWhenFull - checks that a saturated queue drops new operations instead of blocking.
func TestWriter_DropsWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := &blockingAdapter{
		inner:   NewMemoryAdapter(),
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	writer := NewWriter(ctx, adapter, 2, time.Second, discardLogger())

	// First op occupies the worker, the ring is empty again.
	writer.EnqueueSet("busy", []byte("0"))
	<-adapter.started

	writer.EnqueueSet("queued-1", []byte("1"))
	writer.EnqueueSet("queued-2", []byte("2"))
	writer.EnqueueSet("overflow", []byte("3"))

	require.Equal(t, int64(1), writer.Metrics().Dropped)
	require.Equal(t, 2, writer.Pending())

	close(adapter.release)
	require.Eventually(t, func() bool {
		return writer.Metrics().Flushed == 3
	}, time.Second, 5*time.Millisecond)

	_, err := adapter.Get(ctx, "overflow")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestWriter_DrainsOnShutdown - checks that pending operations get a final flush after cancel.
func TestWriter_DrainsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	adapter := NewMemoryAdapter()
	writer := NewWriter(ctx, adapter, 16, time.Second, discardLogger())

	writer.EnqueueSet("parting", []byte("gift"))
	cancel()

	require.Eventually(t, func() bool {
		got, err := adapter.Get(context.Background(), "parting")
		return err == nil && string(got) == "gift"
	}, time.Second, 5*time.Millisecond)
}
