package queue

import "sync"

// Ring - bounded FIFO ring buffer. Push never blocks: when the ring is full
// the element is refused and the caller decides what to drop.
type Ring[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int
}

// NewRing - allocates a ring holding up to size elements.
func NewRing[T any](size int) *Ring[T] {
	if size < 2 {
		size = 2
	}
	// One slot stays unused to tell a full ring from an empty one.
	return &Ring[T]{buf: make([]T, size+1)}
}

func (q *Ring[T]) TryPush(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	next := (q.head + 1) % len(q.buf)
	if next == q.tail { // full
		return false
	}
	q.buf[q.head] = v
	q.head = next
	return true
}

func (q *Ring[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.head == q.tail {
		return zero, false
	}
	v := q.buf[q.tail]
	q.buf[q.tail] = zero
	q.tail = (q.tail + 1) % len(q.buf)
	return v, true
}

func (q *Ring[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return (q.head - q.tail + len(q.buf)) % len(q.buf)
}
