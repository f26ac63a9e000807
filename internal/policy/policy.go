// Package policy provides the eviction orderings the engine can be
// constructed with. The set is closed: lru, lfu, ttl and adaptive.
package policy

import (
	"math"
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/record"
)

type Name string

const (
	LRU      Name = "lru"
	LFU      Name = "lfu"
	TTL      Name = "ttl"
	Adaptive Name = "adaptive"
)

// Valid - reports whether the name is one of the supported policies.
func Valid(name Name) bool {
	switch name {
	case LRU, LFU, TTL, Adaptive:
		return true
	default:
		return false
	}
}

// Comparator - reports whether a should be evicted before b. The engine
// selects one comparator at construction and sorts ascending with it, so the
// head of the order is always the next victim.
type Comparator func(now time.Time, a, b *record.Record) bool

// ForName - returns the comparator for a policy name, falling back to LRU
// for anything unknown.
func ForName(name Name) Comparator {
	switch name {
	case LFU:
		return byFrequency
	case TTL:
		return byDeadline
	case Adaptive:
		return byAdaptiveScore
	default:
		return byLastAccess
	}
}

func byLastAccess(_ time.Time, a, b *record.Record) bool {
	return a.Entry().LastAccessedNano() < b.Entry().LastAccessedNano()
}

func byFrequency(_ time.Time, a, b *record.Record) bool {
	return a.Entry().Frequency() < b.Entry().Frequency()
}

// byDeadline orders by expiry. Entries without a deadline never expire, so
// they sort after every dated entry instead of being treated as already due.
func byDeadline(_ time.Time, a, b *record.Record) bool {
	da, db := a.Entry().ExpiresAtNano(), b.Entry().ExpiresAtNano()
	if da == 0 {
		da = math.MaxInt64
	}
	if db == 0 {
		db = math.MaxInt64
	}
	return da < db
}

func byAdaptiveScore(now time.Time, a, b *record.Record) bool {
	return a.Entry().AdaptiveScore(now) < b.Entry().AdaptiveScore(now)
}
