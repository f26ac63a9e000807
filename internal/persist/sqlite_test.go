package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteAdapter, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	adapter, err := NewSQLiteAdapter(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter, dsn
}

// TestSQLiteAdapter_SetGet - checks that a record survives the table round trip.
func TestSQLiteAdapter_SetGet(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestSQLite(t)

	payload := []byte(`{"value":42,"frequency":1}`)
	require.NoError(t, adapter.Set(ctx, "answer", payload))

	got, err := adapter.Get(ctx, "answer")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

// TestSQLiteAdapter_Upsert - checks that rewriting a key keeps the newest payload only.
func TestSQLiteAdapter_Upsert(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestSQLite(t)

	require.NoError(t, adapter.Set(ctx, "key", []byte("first")))
	require.NoError(t, adapter.Set(ctx, "key", []byte("second")))

	got, err := adapter.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)

	keys, err := adapter.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"key"}, keys)
}

// TestSQLiteAdapter_GetMissing - checks that an absent key reports ErrNotFound.
func TestSQLiteAdapter_GetMissing(t *testing.T) {
	adapter, _ := newTestSQLite(t)

	_, err := adapter.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteAdapter_Remove - checks that a deleted row no longer resolves.
func TestSQLiteAdapter_Remove(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestSQLite(t)

	require.NoError(t, adapter.Set(ctx, "key", []byte("data")))
	require.NoError(t, adapter.Remove(ctx, "key"))

	_, err := adapter.Get(ctx, "key")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteAdapter_Clear - checks that clear truncates the records table.
func TestSQLiteAdapter_Clear(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newTestSQLite(t)

	require.NoError(t, adapter.Set(ctx, "a", []byte("1")))
	require.NoError(t, adapter.Set(ctx, "b", []byte("2")))
	require.NoError(t, adapter.Clear(ctx))

	keys, err := adapter.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

// TestSQLiteAdapter_SurvivesReopen - checks that records outlive the connection.
func TestSQLiteAdapter_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	adapter, dsn := newTestSQLite(t)

	require.NoError(t, adapter.Set(ctx, "durable", []byte("still here")))
	require.NoError(t, adapter.Close())

	reopened, err := NewSQLiteAdapter(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get(ctx, "durable")
	require.NoError(t, err)
	require.Equal(t, []byte("still here"), got)
}
