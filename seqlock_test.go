// seqlock_test.go: tests for the sequence-locked slot
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"sync"
	"testing"
)

type widePayload struct {
	a, b, c, d uint64
}

func TestSeqlockSlot_WriteRead(t *testing.T) {
	var slot seqlockSlot[widePayload]

	want := widePayload{1, 2, 3, 4}
	slot.Write(want)

	if got := slot.Read(); got != want {
		t.Errorf("Read() = %+v, want %+v", got, want)
	}
}

func TestSeqlockSlot_SequenceAdvancesByTwo(t *testing.T) {
	var slot seqlockSlot[int]

	for i := 1; i <= 5; i++ {
		slot.Write(i)
		seq := slot.sequence.Load()
		if seq != uint32(i*2) {
			t.Fatalf("sequence after %d writes = %d, want %d", i, seq, i*2)
		}
		if seq&1 != 0 {
			t.Fatalf("sequence %d is odd at rest", seq)
		}
	}
}

func TestSeqlockSlot_TryReadDuringWrite(t *testing.T) {
	var slot seqlockSlot[int]
	slot.Write(7)

	// Simulate a write in progress by forcing the sequence odd.
	slot.sequence.Add(1)
	if _, ok := slot.TryRead(); ok {
		t.Error("TryRead succeeded while sequence is odd")
	}
	slot.sequence.Add(1)

	v, ok := slot.TryRead()
	if !ok || v != 7 {
		t.Errorf("TryRead = (%d, %v), want (7, true)", v, ok)
	}
}

// TestSeqlockSlot_NoTornReads hammers the slot with a writer that always
// stores internally-consistent payloads; a reader must never observe a mix
// of two writes.
func TestSeqlockSlot_NoTornReads(t *testing.T) {
	var slot seqlockSlot[widePayload]
	slot.Write(widePayload{0, 0, 0, 0})

	const iterations = 100_000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := uint64(1); i <= iterations; i++ {
			slot.Write(widePayload{i, i, i, i})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			v := slot.Read()
			if v.a != v.b || v.b != v.c || v.c != v.d {
				t.Errorf("torn read observed: %+v", v)
				return
			}
		}
	}()

	wg.Wait()
}

func TestSeqlockSlot_InterfacePayload(t *testing.T) {
	var slot seqlockSlot[any]

	slot.Write("first")
	if got := slot.Read(); got != "first" {
		t.Errorf("Read() = %v, want first", got)
	}

	slot.Write(42)
	if got := slot.Read(); got != 42 {
		t.Errorf("Read() = %v, want 42", got)
	}
}
