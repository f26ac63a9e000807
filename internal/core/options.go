package core

import "time"

// SetOption - per-write knob for Set and GetOrCompute.
type SetOption func(*writeOptions)

type writeOptions struct {
	ttl      time.Duration
	ttlSet   bool
	tags     []string
	priority int
	compress bool
}

// WithTTL - overrides the configured default lifetime for this write.
// Zero or negative means the record never expires.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *writeOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

// WithTags - attaches tags for group invalidation. A re-set replaces the
// record's previous tag set wholesale.
func WithTags(tags ...string) SetOption {
	return func(o *writeOptions) { o.tags = tags }
}

// WithPriority - raises or lowers the record's standing under the adaptive
// policy. Default is zero.
func WithPriority(priority int) SetOption {
	return func(o *writeOptions) { o.priority = priority }
}

// WithCompression - requests payload compression for this write. Takes
// effect only when compression is also enabled in the engine config.
func WithCompression() SetOption {
	return func(o *writeOptions) { o.compress = true }
}
