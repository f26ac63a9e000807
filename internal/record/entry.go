package record

import (
	"math"
	"sync/atomic"
	"time"
)

// Adaptive score weights. Each term is normalized into [0,1] so the sum is
// comparable across entries regardless of absolute priority or age.
const (
	weightRecency   = 0.35
	weightFrequency = 0.25
	weightPriority  = 0.25
	weightTTL       = 0.15
)

// Entry - bookkeeping for a single record: size estimate, priority, access
// statistics and expiry. Frequency and lastAccessed are atomics so the read
// path can renew them under a shared lock.
type Entry struct {
	sizeBytes    int64
	priority     int
	frequency    atomic.Int64
	createdAt    int64
	lastAccessed atomic.Int64
	expiresAt    int64 // unix nanos, 0 means no expiry
}

// NewEntry - builds an entry for a freshly written value. Frequency starts
// at one, lastAccessed equals createdAt, a non-positive ttl means no expiry.
func NewEntry(sizeBytes int64, ttl time.Duration, priority int, now time.Time) *Entry {
	nano := now.UnixNano()
	e := &Entry{
		sizeBytes: sizeBytes,
		priority:  priority,
		createdAt: nano,
	}
	e.frequency.Store(1)
	e.lastAccessed.Store(nano)
	if ttl > 0 {
		e.expiresAt = nano + ttl.Nanoseconds()
	}
	return e
}

// RestoreEntry - rebuilds an entry from persisted state. The lastAccessed
// timestamp is clamped up to createdAt, frequency up to one.
func RestoreEntry(sizeBytes int64, priority int, frequency int64, createdAt, lastAccessed, expiresAt time.Time) *Entry {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	if frequency < 1 {
		frequency = 1
	}
	e := &Entry{
		sizeBytes: sizeBytes,
		priority:  priority,
		createdAt: createdAt.UnixNano(),
	}
	e.frequency.Store(frequency)
	accessed := lastAccessed.UnixNano()
	if accessed < e.createdAt {
		accessed = e.createdAt
	}
	e.lastAccessed.Store(accessed)
	if !expiresAt.IsZero() {
		e.expiresAt = expiresAt.UnixNano()
	}
	return e
}

func (e *Entry) SizeBytes() int64 { return e.sizeBytes }

func (e *Entry) Priority() int { return e.priority }

func (e *Entry) Frequency() int64 { return e.frequency.Load() }

// IncrementFrequency - bumps the read counter. The access timestamp is
// renewed separately by Touch.
func (e *Entry) IncrementFrequency() {
	e.frequency.Add(1)
}

func (e *Entry) CreatedAt() time.Time { return time.Unix(0, e.createdAt) }

func (e *Entry) LastAccessed() time.Time { return time.Unix(0, e.lastAccessed.Load()) }

func (e *Entry) LastAccessedNano() int64 { return e.lastAccessed.Load() }

// Touch - renews the access timestamp. It never moves backwards.
func (e *Entry) Touch(now time.Time) {
	nano := now.UnixNano()
	for {
		prev := e.lastAccessed.Load()
		if nano <= prev {
			return
		}
		if e.lastAccessed.CompareAndSwap(prev, nano) {
			return
		}
	}
}

// HasExpiry - reports whether the entry ever expires.
func (e *Entry) HasExpiry() bool { return e.expiresAt != 0 }

// ExpiresAt - returns the expiry deadline and whether one is set.
func (e *Entry) ExpiresAt() (time.Time, bool) {
	if e.expiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, e.expiresAt), true
}

func (e *Entry) ExpiresAtNano() int64 { return e.expiresAt }

// IsExpired - checks that the deadline is set and already reached.
func (e *Entry) IsExpired(now time.Time) bool {
	return e.expiresAt != 0 && now.UnixNano() >= e.expiresAt
}

// AdaptiveScore - combines priority, frequency, recency and remaining ttl
// into a single value in [0,1]. The score grows with each component, so the
// lowest score marks the best eviction candidate.
func (e *Entry) AdaptiveScore(now time.Time) float64 {
	nano := now.UnixNano()

	age := float64(nano - e.lastAccessed.Load())
	if age < 0 {
		age = 0
	}
	recency := 1.0 / (1.0 + age/float64(time.Second))

	freq := float64(e.frequency.Load())
	frequency := freq / (freq + 8)

	priority := (math.Atan(float64(e.priority)) + math.Pi/2) / math.Pi

	ttlFraction := 1.0
	if e.expiresAt != 0 {
		total := float64(e.expiresAt - e.createdAt)
		left := float64(e.expiresAt - nano)
		switch {
		case total <= 0 || left <= 0:
			ttlFraction = 0
		case left >= total:
			ttlFraction = 1
		default:
			ttlFraction = left / total
		}
	}

	return weightRecency*recency + weightFrequency*frequency + weightPriority*priority + weightTTL*ttlFraction
}
