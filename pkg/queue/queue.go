// Package queue provides the multi-producer, single-consumer chunk queue
// that decouples byte arrival from command processing.
//
// Producers call Enqueue from any goroutine, including contexts that must
// never block; it either stores a private copy of the chunk or reports
// failure. Dropping the chunk on failure is the caller's policy, there is
// no retry and no backpressure beyond the returned bool.
//
// Exactly one consumer calls PopWait (or Pop). How it waits for data is
// fixed at build time: by default it sleeps on a wake-up channel signalled
// by Enqueue, with the gpiocmd_poll build tag it busy-polls the ring for
// targets without a scheduler that can park goroutines.
package queue

import (
	"context"
	"errors"
)

// DefaultCapacity is the number of chunk slots used by New(0).
const DefaultCapacity = 256

// ErrFull is returned by producers wrapping Enqueue as an error.
var ErrFull = errors.New("queue full")

// Queue is a bounded MPSC queue of byte chunks.
type Queue struct {
	ring   *Ring
	waiter waiter
}

// New creates a Queue with capacity slots, DefaultCapacity if capacity <= 0.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{ring: NewRing(capacity), waiter: newWaiter()}
}

// Cap returns the capacity.
func (q *Queue) Cap() int { return q.ring.Cap() }

// Len returns an approximate number of queued chunks.
func (q *Queue) Len() int { return q.ring.Len() }

// Enqueue copies chunk into the queue and wakes the consumer. It returns
// false without storing anything when the queue is full.
func (q *Queue) Enqueue(chunk []byte) bool {
	data := make([]byte, len(chunk))
	copy(data, chunk)
	if !q.ring.Push(data) {
		return false
	}
	q.waiter.notify()
	return true
}

// PopWait waits until a chunk is available and returns it.
// It has no timeout.
func (q *Queue) PopWait() []byte {
	data, _ := q.Pop(context.Background())
	return data
}

// Pop is PopWait which gives up when ctx is done.
func (q *Queue) Pop(ctx context.Context) ([]byte, error) {
	for {
		if data, ok := q.ring.Pop(); ok {
			return data, nil
		}
		if err := q.waiter.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// TryPop returns a chunk if one is ready.
func (q *Queue) TryPop() ([]byte, bool) {
	return q.ring.Pop()
}
