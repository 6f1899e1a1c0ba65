// sketch.go: 4-bit Count-Min frequency sketch for TinyLFU admission
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"math/bits"
)

// sketch seeds: one multiplicative seed per hash function. Fixed so that
// estimates are reproducible across runs.
var sketchSeeds = [4]uint64{
	0xc3a5c85c97cb3127,
	0xb492b66fbe98f273,
	0x9ae16a3b2f90404f,
	0xcbf29ce484222325,
}

const (
	// sketchOneMask selects the low bit of every 4-bit counter in a word.
	sketchOneMask = uint64(0x1111111111111111)
	// sketchResetMask clears the bit shifted out of each counter on halving.
	sketchResetMask = uint64(0x7777777777777777)
	// sketchMaxCount is the saturation value of a 4-bit counter.
	sketchMaxCount = 15
)

// frequencySketch is a Count-Min sketch with 4-bit counters packed sixteen
// to a word, used to estimate key popularity for admission decisions.
//
// The sketch is owned by the maintenance pass: it is mutated and read only
// while the drain gate is held, so no atomics are needed. Counters saturate
// at 15; once the number of successful increments reaches the sample size,
// every counter is halved so stale popularity ages out.
type frequencySketch struct {
	table      []uint64
	tableMask  uint64
	sampleSize int64
	size       int64
}

// newFrequencySketch sizes the sketch for capacity entries: the table length
// is the next power of two >= capacity and the sample size is ten times the
// capacity (minimum 10).
func newFrequencySketch(capacity int) *frequencySketch {
	s := &frequencySketch{}
	s.ResetSampleSize(capacity)
	return s
}

// ResetSampleSize re-sizes the sketch for a new capacity, discarding all
// recorded frequencies.
func (s *frequencySketch) ResetSampleSize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	tableSize := nextPowerOf2(capacity)
	s.table = make([]uint64, tableSize)
	s.tableMask = uint64(tableSize - 1) // #nosec G115 - tableSize is a power of 2
	s.sampleSize = int64(capacity) * 10
	if s.sampleSize < 10 {
		s.sampleSize = 10
	}
	s.size = 0
}

// Size returns the number of successful increments since the last reset.
func (s *frequencySketch) Size() int64 {
	return s.size
}

// EstimateFrequency returns the estimated popularity of a key, in [0, 15].
// The estimate is the minimum of the four counters the key hashes to.
func (s *frequencySketch) EstimateFrequency(keyHash uint64) uint64 {
	h := spread(keyHash)
	start := (h & 3) << 2

	frequency := uint64(sketchMaxCount)
	for i := 0; i < 4; i++ {
		idx := s.indexOf(h, i)
		count := (s.table[idx] >> ((start + uint64(i)) << 2)) & 0xF
		if count < frequency {
			frequency = count
		}
	}
	return frequency
}

// Increment bumps the four counters for a key, saturating each at 15. If at
// least one counter changed, the sample counter advances; reaching the
// sample size triggers a reset.
func (s *frequencySketch) Increment(keyHash uint64) {
	h := spread(keyHash)
	start := (h & 3) << 2

	added := false
	for i := 0; i < 4; i++ {
		idx := s.indexOf(h, i)
		added = s.incrementAt(idx, start+uint64(i)) || added
	}

	if added {
		s.size++
		if s.size == s.sampleSize {
			s.reset()
		}
	}
}

// incrementAt bumps the counter at offset within the word at idx, reporting
// whether it changed.
func (s *frequencySketch) incrementAt(idx, offset uint64) bool {
	shift := offset << 2
	if (s.table[idx]>>shift)&0xF == sketchMaxCount {
		return false
	}
	s.table[idx] += 1 << shift
	return true
}

// indexOf picks the table word for hash function i.
func (s *frequencySketch) indexOf(h uint64, i int) uint64 {
	hash := (h + sketchSeeds[i]) * sketchSeeds[i]
	hash += hash >> 32
	return hash & s.tableMask
}

// reset halves every counter in a single pass. The popcount of the odd bits
// counts the increments lost to truncation, keeping size accurate for the
// next sample interval.
func (s *frequencySketch) reset() {
	count := 0
	for i := range s.table {
		count += bits.OnesCount64(s.table[i] & sketchOneMask)
		s.table[i] = (s.table[i] >> 1) & sketchResetMask
	}
	s.size = (s.size - int64(count>>2)) >> 1
}

// Clear zeroes the table and the sample counter.
func (s *frequencySketch) Clear() {
	for i := range s.table {
		s.table[i] = 0
	}
	s.size = 0
}
