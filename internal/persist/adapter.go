// Package persist is the storage boundary of the engine: a small adapter
// interface over external key/value storage, backends implementing it, and
// the write-behind worker that keeps the hot path from waiting on any of
// them. Every adapter call is best-effort from the engine's point of view.
package persist

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the backend holds no record for the
// key. It separates an ordinary miss from a backend failure.
var ErrNotFound = errors.New("record not found in storage")

// Adapter - external storage facade. Values are opaque serialized records;
// adapters never interpret them.
type Adapter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}
