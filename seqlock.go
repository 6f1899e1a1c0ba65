// seqlock.go: sequence-locked slot for torn-read protection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"runtime"
	"sync/atomic"
)

// seqlockSlot protects a payload wider than a machine word from torn reads
// without a mutex. The sequence counter is bumped once before and once after
// every write, so an odd value marks a write in progress. Readers loop:
// sample the sequence, copy the payload, sample again; matching even samples
// mean the copy is consistent.
//
// Writers must be externally serialized. The cache guarantees this by
// routing every mutation of a node's value through its per-entry lock.
type seqlockSlot[V any] struct {
	sequence atomic.Uint32
	value    V
}

// Write publishes v. Callers hold the external writer lock.
func (s *seqlockSlot[V]) Write(v V) {
	seq := s.sequence.Load()
	s.sequence.Store(seq + 1)
	s.value = v
	s.sequence.Store(seq + 2)
}

// Read returns a consistent copy of the payload, spinning past in-progress
// writes.
func (s *seqlockSlot[V]) Read() V {
	spins := 0
	for {
		seq := s.sequence.Load()
		if seq&1 == 0 {
			v := s.value
			if s.sequence.Load() == seq {
				return v
			}
		}
		spins++
		if spins%8 == 0 {
			runtime.Gosched()
		}
	}
}

// TryRead makes a single attempt; ok is false if a writer was in progress.
func (s *seqlockSlot[V]) TryRead() (v V, ok bool) {
	seq := s.sequence.Load()
	if seq&1 != 0 {
		return v, false
	}
	v = s.value
	return v, s.sequence.Load() == seq
}
