// Package buffer provides the bounded FIFO used to model ready/valid
// channels between cycle-level components.
//
// A transfer on a hardware ready/valid channel happens on a cycle where the
// producer asserts valid and the consumer asserts ready. In this model,
// CanPush reports the consumer-side ready, a successful Peek reports the
// producer-side valid, and a Push (or Pop) performed on such a cycle is the
// transfer itself.
package buffer

import "log"

// Buffer is a bounded FIFO of T.
type Buffer[T any] struct {
	capacity int
	elements []T
}

// New creates a buffer holding at most capacity elements.
// Capacity must be positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		log.Panicf("buffer capacity must be positive, got %d", capacity)
	}

	return &Buffer[T]{capacity: capacity}
}

// CanPush returns true if the buffer has room for one more element. This is
// the ready signal seen by the producer.
func (b *Buffer[T]) CanPush() bool {
	return len(b.elements) < b.capacity
}

// Push appends an element. Pushing into a full buffer is a usage bug and
// panics; callers must check CanPush first.
func (b *Buffer[T]) Push(e T) {
	if len(b.elements) >= b.capacity {
		log.Panic("buffer overflow")
	}

	b.elements = append(b.elements, e)
}

// Peek returns the head element without removing it. The second return
// value is false when the buffer is empty.
func (b *Buffer[T]) Peek() (T, bool) {
	var zero T
	if len(b.elements) == 0 {
		return zero, false
	}

	return b.elements[0], true
}

// Pop removes and returns the head element. Popping an empty buffer is a
// usage bug and panics; callers must check Peek or Size first.
func (b *Buffer[T]) Pop() T {
	if len(b.elements) == 0 {
		log.Panic("buffer underflow")
	}

	e := b.elements[0]
	b.elements = b.elements[1:]

	return e
}

// Size returns the number of buffered elements.
func (b *Buffer[T]) Size() int {
	return len(b.elements)
}

// Capacity returns the maximum number of elements the buffer can hold.
func (b *Buffer[T]) Capacity() int {
	return b.capacity
}

// Clear removes all elements.
func (b *Buffer[T]) Clear() {
	b.elements = nil
}
