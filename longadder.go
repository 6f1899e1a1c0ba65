// longadder.go: striped contention-avoiding sum counter
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"math/rand/v2"
	"runtime"
	"sync/atomic"
)

// LongAdder is a counter whose writes spread across cache-line padded cells
// to reduce contention. A single base cell absorbs all traffic until the
// first CAS failure; from then on each update hashes to a cell in a lazily
// grown array. The array doubles on repeated contention, capped at the next
// power of two >= GOMAXPROCS, and never shrinks.
//
// Sum is a snapshot, not linearizable across concurrent increments: it reads
// base plus every cell without fencing between cells, so it may skew by
// in-flight updates but never reports a negative total.
type LongAdder struct {
	base  atomic.Int64
	busy  atomic.Int32
	cells atomic.Pointer[[]*paddedCell]
}

// maxAdderCells bounds cell growth at the next power of two >= CPU count.
// More stripes than runnable goroutines only waste cache lines.
func maxAdderCells() int {
	return nextPowerOf2(runtime.GOMAXPROCS(0))
}

// Increment adds 1 to the counter.
func (a *LongAdder) Increment() {
	a.Add(1)
}

// Decrement subtracts 1 from the counter.
func (a *LongAdder) Decrement() {
	a.Add(-1)
}

// Add adds delta to the counter.
func (a *LongAdder) Add(delta int64) {
	cells := a.cells.Load()
	if cells == nil {
		v := a.base.Load()
		if a.base.CompareAndSwap(v, v+delta) {
			return
		}
	}
	a.accumulate(delta)
}

// accumulate is the slow path taken on base contention. Each attempt picks a
// cell from a cheap per-call probe; a failed CAS either grows the array or
// re-probes to another cell.
func (a *LongAdder) accumulate(delta int64) {
	// rand/v2 draws from a per-thread source, so probing itself does not
	// become a new contention point.
	probe := rand.Uint32()
	collided := false

	for {
		cells := a.cells.Load()
		switch {
		case cells != nil:
			c := (*cells)[probe&uint32(len(*cells)-1)]
			v := c.value.Load()
			if c.value.CompareAndSwap(v, v+delta) {
				return
			}
			if len(*cells) < maxAdderCells() && collided {
				if a.busy.CompareAndSwap(0, 1) {
					if cur := a.cells.Load(); cur == cells {
						a.growCells(cells)
					}
					a.busy.Store(0)
					collided = false
					continue
				}
			}
			collided = true
			probe = rand.Uint32()

		case a.busy.CompareAndSwap(0, 1):
			if a.cells.Load() == nil {
				initial := make([]*paddedCell, 2)
				initial[0] = new(paddedCell)
				initial[1] = new(paddedCell)
				initial[probe&1].value.Store(delta)
				a.cells.Store(&initial)
				a.busy.Store(0)
				return
			}
			a.busy.Store(0)

		default:
			// Another goroutine is initializing the cells; fold into base.
			v := a.base.Load()
			if a.base.CompareAndSwap(v, v+delta) {
				return
			}
		}
	}
}

// growCells doubles the cell array. Cell pointers are carried over, so CAS
// loops racing against the grow keep updating the same cells.
func (a *LongAdder) growCells(old *[]*paddedCell) {
	grown := make([]*paddedCell, len(*old)*2)
	copy(grown, *old)
	for i := len(*old); i < len(grown); i++ {
		grown[i] = new(paddedCell)
	}
	a.cells.Store(&grown)
}

// Sum returns the current total. The result is approximate under concurrent
// updates and clamped at zero.
func (a *LongAdder) Sum() int64 {
	sum := a.base.Load()
	if cells := a.cells.Load(); cells != nil {
		for _, c := range *cells {
			sum += c.value.Load()
		}
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// Reset zeroes the base and every cell. Concurrent updates may survive the
// reset; callers that need an exact zero must quiesce writers first.
func (a *LongAdder) Reset() {
	a.base.Store(0)
	if cells := a.cells.Load(); cells != nil {
		for _, c := range *cells {
			c.value.Store(0)
		}
	}
}
