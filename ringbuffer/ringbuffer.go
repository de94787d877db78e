// Package ringbuffer implements a lock-free single-producer/single-consumer
// circular queue used to hand samples between a control-side producer (a
// decode goroutine, a capture callback) and the real-time audio thread that
// consumes them.
package ringbuffer

import "sync/atomic"

// Ring is a power-of-two-capacity SPSC ring buffer over T. The zero value is
// not usable; construct with New. Exactly one goroutine may call Write and
// exactly one (possibly different) goroutine may call Read concurrently;
// Clear is for teardown only and is not safe under concurrent access.
type Ring[T any] struct {
	buf  []T
	mask uint64

	// writeIdx is only ever written by the producer and read by the
	// consumer; readIdx is the mirror image. Both monotonically increase
	// and are never reduced mod capacity directly - the mask is applied at
	// the point of indexing so wraparound falls out for free.
	writeIdx atomic.Uint64
	readIdx  atomic.Uint64
}

// New returns a Ring whose capacity is the next power of two >= capacity
// (minimum 2, since one slot is always reserved to disambiguate full from
// empty).
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	c := nextPowerOfTwo(capacity)
	return &Ring[T]{
		buf:  make([]T, c),
		mask: uint64(c - 1),
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the usable capacity (buffer size minus the one reserved
// slot).
func (r *Ring[T]) Capacity() int {
	return len(r.buf) - 1
}

// AvailableRead returns the number of elements available to Read right now.
func (r *Ring[T]) AvailableRead() int {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	return int(w - rd)
}

// AvailableWrite returns the number of elements that can be Written right
// now without blocking or overwriting unread data.
func (r *Ring[T]) AvailableWrite() int {
	return r.Capacity() - r.AvailableRead()
}

// Write copies as many elements of span into the ring as fit, returning the
// number written. It never blocks: if the ring is full it writes a partial
// (possibly zero) prefix of span.
func (r *Ring[T]) Write(span []T) int {
	avail := r.AvailableWrite()
	n := len(span)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	w := r.writeIdx.Load()
	start := int(w & r.mask)
	first := len(r.buf) - start
	if first > n {
		first = n
	}
	copy(r.buf[start:start+first], span[:first])
	if rest := n - first; rest > 0 {
		copy(r.buf[0:rest], span[first:n])
	}

	// Release: the data copy above must be visible to the consumer before
	// it observes the advanced index.
	r.writeIdx.Store(w + uint64(n))
	return n
}

// Read copies as many elements as are available (up to len(span)) out of
// the ring into span, returning the number read. It never blocks: if the
// ring is empty it returns 0.
func (r *Ring[T]) Read(span []T) int {
	avail := r.AvailableRead()
	n := len(span)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	// Acquire: the write index must be observed before reading the slots
	// it makes visible.
	rd := r.readIdx.Load()
	start := int(rd & r.mask)
	first := len(r.buf) - start
	if first > n {
		first = n
	}
	copy(span[:first], r.buf[start:start+first])
	if rest := n - first; rest > 0 {
		copy(span[first:n], r.buf[0:rest])
	}

	r.readIdx.Store(rd + uint64(n))
	return n
}

// Skip discards up to n queued elements without copying them out, returning
// the number actually discarded. Used by consumers correcting for drift
// that need to fast-forward past buffered data rather than read it.
func (r *Ring[T]) Skip(n int) int {
	avail := r.AvailableRead()
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}
	r.readIdx.Store(r.readIdx.Load() + uint64(n))
	return n
}

// Clear resets the ring to empty. Not safe under concurrent producer/
// consumer access - intended for teardown/reinitialization only.
func (r *Ring[T]) Clear() {
	r.writeIdx.Store(0)
	r.readIdx.Store(0)
}
