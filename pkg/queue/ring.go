package queue

import "sync/atomic"

type cell struct {
	seq  atomic.Uint64
	data []byte
}

// Ring is a bounded lock-free queue of byte chunks. Push may be called
// from any number of goroutines and never blocks; Pop must only be
// called by a single consumer.
type Ring struct {
	cells []cell
	size  uint64
	enq   atomic.Uint64 // next position to reserve (monotonic)
	deq   atomic.Uint64 // next position to consume (monotonic)
}

// NewRing creates a Ring holding up to capacity chunks.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	r := &Ring{cells: make([]cell, capacity), size: uint64(capacity)}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// Cap returns the number of slots.
func (r *Ring) Cap() int { return len(r.cells) }

// Len returns the number of stored chunks. It is a snapshot and may be
// stale by the time it returns.
func (r *Ring) Len() int {
	deq := r.deq.Load()
	enq := r.enq.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// Push stores data and reports false if every slot is taken.
func (r *Ring) Push(data []byte) bool {
	var c *cell
	pos := r.enq.Load()
	for {
		c = &r.cells[pos%r.size]
		switch dif := int64(c.seq.Load() - pos); {
		case dif == 0:
			if r.enq.CompareAndSwap(pos, pos+1) {
				c.data = data
				c.seq.Store(pos + 1) // publish
				return true
			}
			pos = r.enq.Load()
		case dif < 0:
			// slot still holds the chunk from the previous lap
			return false
		default:
			pos = r.enq.Load()
		}
	}
}

// Pop removes the oldest published chunk. ok is false when nothing is
// ready, including when a producer reserved the head slot but has not
// finished writing it yet.
func (r *Ring) Pop() (data []byte, ok bool) {
	pos := r.deq.Load()
	c := &r.cells[pos%r.size]
	if int64(c.seq.Load()-(pos+1)) < 0 {
		return nil, false
	}
	r.deq.Store(pos + 1)
	data, c.data = c.data, nil
	c.seq.Store(pos + r.size) // release the slot for the next lap
	return data, true
}
