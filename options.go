package adaptcache

import (
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/core"
	"github.com/adaptcache/go-adapt-cache/internal/janitor"
)

// Errors callers branch on.
var (
	ErrValueTooLarge       = core.ErrValueTooLarge
	ErrDisposed            = core.ErrDisposed
	ErrJanitorNotResponded = janitor.ErrJanitorNotResponded
)

type (
	// Statistics - point-in-time view of cache activity.
	Statistics = core.Statistics
	// SetOption - per-write knob for Set and GetOrCompute.
	SetOption = core.SetOption
	// Loader - produces the value for a missing key inside GetOrCompute.
	Loader = core.Loader
)

// WithTTL - overrides the configured default lifetime for this write.
// Zero or negative means the record never expires.
func WithTTL(ttl time.Duration) SetOption { return core.WithTTL(ttl) }

// WithTags - attaches tags for group invalidation. A re-set replaces the
// record's previous tag set wholesale.
func WithTags(tags ...string) SetOption { return core.WithTags(tags...) }

// WithPriority - raises or lowers the record's standing under the adaptive
// policy. Default is zero.
func WithPriority(priority int) SetOption { return core.WithPriority(priority) }

// WithCompression - requests payload compression for this write. Takes
// effect only when compression is also enabled in the engine config.
func WithCompression() SetOption { return core.WithCompression() }
