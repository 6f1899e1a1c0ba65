// buffer.go: multi-producer single-consumer bounded ring buffer
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"sync/atomic"
)

// BufferStatus is the result of a ring buffer operation.
type BufferStatus int32

const (
	// BufferSuccess means the operation completed.
	BufferSuccess BufferStatus = iota
	// BufferFull means TryAdd found no free slot.
	BufferFull
	// BufferEmpty means TryTake found no item.
	BufferEmpty
	// BufferContended means the operation lost a race and should be retried
	// later. Producers lose the tail CAS; the consumer observes a slot that
	// was reserved but not yet published.
	BufferContended
)

// mpscBuffer is a bounded lock-free ring for many producers and one
// consumer. A producer reserves a slot by CAS on tail, then publishes the
// item with a store into the slot; the two steps are deliberately separate
// so producers never block each other. The consumer tolerates the gap
// between reservation and publication by reporting BufferContended.
//
// Head and tail are monotonically non-decreasing 32-bit counters; slots are
// addressed by masking, so wraparound is harmless.
type mpscBuffer[T any] struct {
	mask     uint32
	buffer   []atomic.Pointer[T]
	counters paddedHeadAndTail
}

// newMpscBuffer creates a buffer holding at least bounded items, rounded up
// to a power of two.
func newMpscBuffer[T any](bounded int) (*mpscBuffer[T], error) {
	if bounded <= 0 {
		return nil, NewErrInvalidBufferSize(bounded)
	}
	size := nextPowerOf2(bounded)
	return &mpscBuffer[T]{
		mask:   uint32(size - 1), // #nosec G115 - size is a small power of 2
		buffer: make([]atomic.Pointer[T], size),
	}, nil
}

// Capacity returns the rounded buffer length.
func (b *mpscBuffer[T]) Capacity() int {
	return len(b.buffer)
}

// Count returns a snapshot of the number of items currently held.
func (b *mpscBuffer[T]) Count() int {
	head := b.counters.head.Load()
	tail := b.counters.tail.Load()
	size := int(tail - head)
	if size < 0 {
		return 0
	}
	if size > len(b.buffer) {
		return len(b.buffer)
	}
	return size
}

// TryAdd attempts to enqueue item. Safe for concurrent producers.
func (b *mpscBuffer[T]) TryAdd(item *T) BufferStatus {
	head := b.counters.head.Load()
	tail := b.counters.tail.Load()
	size := tail - head

	if int(size) >= len(b.buffer) {
		return BufferFull
	}

	if b.counters.tail.CompareAndSwap(tail, tail+1) {
		b.buffer[uint32(tail)&b.mask].Store(item)
		return BufferSuccess
	}

	return BufferContended
}

// TryTake attempts to dequeue one item. Single consumer only.
func (b *mpscBuffer[T]) TryTake() (*T, BufferStatus) {
	head := b.counters.head.Load()
	tail := b.counters.tail.Load()

	if head == tail {
		return nil, BufferEmpty
	}

	idx := uint32(head) & b.mask
	item := b.buffer[idx].Load()
	if item == nil {
		// Reserved by a producer that has not published yet.
		return nil, BufferContended
	}

	b.buffer[idx].Store(nil)
	b.counters.head.Store(head + 1)
	return item, BufferSuccess
}

// DrainTo dequeues into out until the buffer is empty, out is full, or an
// unpublished slot is observed. The new head is published once at the end.
// Single consumer only. Returns the number of items written to out.
func (b *mpscBuffer[T]) DrainTo(out []*T) int {
	head := b.counters.head.Load()
	tail := b.counters.tail.Load()

	drained := 0
	for drained < len(out) && head != tail {
		idx := uint32(head) & b.mask
		item := b.buffer[idx].Load()
		if item == nil {
			break
		}
		b.buffer[idx].Store(nil)
		out[drained] = item
		drained++
		head++
	}

	if drained > 0 {
		b.counters.head.Store(head)
	}
	return drained
}

// Clear empties the buffer. Not thread-safe: producers and the consumer must
// be quiesced first.
func (b *mpscBuffer[T]) Clear() {
	for i := range b.buffer {
		b.buffer[i].Store(nil)
	}
	b.counters.head.Store(0)
	b.counters.tail.Store(0)
}
