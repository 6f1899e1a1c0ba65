// sketch_test.go: unit tests and benchmarks for frequency sketch
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"strconv"
	"testing"
)

func TestNewFrequencySketch(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int
		tableSize  int
		sampleSize int64
	}{
		{"one entry", 1, 1, 10},
		{"tiny", 100, 128, 1000},
		{"power of two", 512, 512, 5120},
		{"large", 10000, 16384, 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sketch := newFrequencySketch(tt.capacity)

			if len(sketch.table) != tt.tableSize {
				t.Errorf("table size = %d, want %d", len(sketch.table), tt.tableSize)
			}
			if sketch.tableMask != uint64(tt.tableSize-1) {
				t.Errorf("tableMask = %d, want %d", sketch.tableMask, tt.tableSize-1)
			}
			if sketch.sampleSize != tt.sampleSize {
				t.Errorf("sampleSize = %d, want %d", sketch.sampleSize, tt.sampleSize)
			}
		})
	}
}

func TestFrequencySketch_IncrementAndEstimate(t *testing.T) {
	sketch := newFrequencySketch(512)
	keyHash := stringHash("test-key")

	if est := sketch.EstimateFrequency(keyHash); est != 0 {
		t.Errorf("initial estimate = %d, want 0", est)
	}

	prior := uint64(0)
	for i := 0; i < 20; i++ {
		sketch.Increment(keyHash)
		est := sketch.EstimateFrequency(keyHash)
		if est < prior {
			t.Errorf("estimate dropped from %d to %d after increment", prior, est)
		}
		if est > sketchMaxCount {
			t.Errorf("estimate %d exceeds saturation bound", est)
		}
		prior = est
	}

	if prior != sketchMaxCount {
		t.Errorf("estimate after 20 increments = %d, want %d (saturated)", prior, sketchMaxCount)
	}
}

// TestFrequencySketch_Monotonicity: a key incremented fifteen times must
// estimate at least as popular as a key incremented once.
func TestFrequencySketch_Monotonicity(t *testing.T) {
	sketch := newFrequencySketch(512)

	k1 := stringHash("fresh-key-one")
	k2 := stringHash("fresh-key-two")

	for i := 0; i < 15; i++ {
		sketch.Increment(k1)
	}
	sketch.Increment(k2)

	e1 := sketch.EstimateFrequency(k1)
	e2 := sketch.EstimateFrequency(k2)

	if e1 < e2 {
		t.Errorf("EstimateFrequency(k1)=%d < EstimateFrequency(k2)=%d", e1, e2)
	}
	if e1 > 15 {
		t.Errorf("EstimateFrequency(k1)=%d exceeds 15", e1)
	}
}

func TestFrequencySketch_SizeBookkeeping(t *testing.T) {
	sketch := newFrequencySketch(512)

	// Distinct keys below the sample threshold: every increment succeeds.
	for i := 0; i < 100; i++ {
		sketch.Increment(stringHash("key-" + strconv.Itoa(i)))
	}
	if size := sketch.Size(); size != 100 {
		t.Errorf("Size() = %d, want 100", size)
	}

	// A saturated key stops contributing to the sample count.
	hot := stringHash("hot-key")
	for i := 0; i < 40; i++ {
		sketch.Increment(hot)
	}
	size := sketch.Size()
	if size >= 140 {
		t.Errorf("Size() = %d, saturated increments must not all count", size)
	}
}

// TestFrequencySketch_ResetHalves verifies the aging pass: every counter is
// halved (with at most one unit of truncation) and the sample counter is
// rebuilt from the truncation residue.
func TestFrequencySketch_ResetHalves(t *testing.T) {
	sketch := newFrequencySketch(512)

	keys := []string{"alpha", "beta", "gamma", "delta"}
	counts := []int{14, 9, 4, 1}
	hashes := make([]uint64, len(keys))
	before := make([]uint64, len(keys))

	for i, key := range keys {
		hashes[i] = stringHash(key)
		for j := 0; j < counts[i]; j++ {
			sketch.Increment(hashes[i])
		}
		before[i] = sketch.EstimateFrequency(hashes[i])
	}

	sketch.reset()

	for i := range keys {
		after := sketch.EstimateFrequency(hashes[i])
		want := before[i] / 2
		if after < want || after > want+1 {
			t.Errorf("key %s: estimate after reset = %d, want %d (+1)", keys[i], after, want)
		}
	}

	if sketch.size < 0 {
		t.Errorf("size went negative after reset: %d", sketch.size)
	}
}

// TestFrequencySketch_ResetTriggered drives the sketch to its sample size
// with distinct keys and verifies that the aging reset fires and halves a
// saturated key's estimate.
func TestFrequencySketch_ResetTriggered(t *testing.T) {
	sketch := newFrequencySketch(64) // sampleSize 640

	hot := stringHash("hot-key")
	for i := 0; i < 15; i++ {
		sketch.Increment(hot)
	}
	if est := sketch.EstimateFrequency(hot); est != 15 {
		t.Fatalf("estimate before reset = %d, want 15", est)
	}

	resetSeen := false
	for i := 0; i < 10*640 && !resetSeen; i++ {
		before := sketch.Size()
		sketch.Increment(stringHash("filler-" + strconv.Itoa(i)))
		if sketch.Size() < before {
			resetSeen = true
		}
	}
	if !resetSeen {
		t.Fatal("no reset observed within ten sample intervals")
	}

	est := sketch.EstimateFrequency(hot)
	if est < 6 || est > 8 {
		t.Errorf("estimate after reset = %d, want 7 (+-1)", est)
	}
}

func TestFrequencySketch_Clear(t *testing.T) {
	sketch := newFrequencySketch(256)
	keyHash := stringHash("cleared")

	for i := 0; i < 10; i++ {
		sketch.Increment(keyHash)
	}

	sketch.Clear()

	if est := sketch.EstimateFrequency(keyHash); est != 0 {
		t.Errorf("estimate after Clear = %d, want 0", est)
	}
	if size := sketch.Size(); size != 0 {
		t.Errorf("Size() after Clear = %d, want 0", size)
	}
}

func TestFrequencySketch_ResetSampleSize(t *testing.T) {
	sketch := newFrequencySketch(64)
	keyHash := stringHash("resized")
	sketch.Increment(keyHash)

	sketch.ResetSampleSize(1024)

	if len(sketch.table) != 1024 {
		t.Errorf("table size after resize = %d, want 1024", len(sketch.table))
	}
	if sketch.sampleSize != 10240 {
		t.Errorf("sampleSize after resize = %d, want 10240", sketch.sampleSize)
	}
	if est := sketch.EstimateFrequency(keyHash); est != 0 {
		t.Errorf("estimate survived resize: %d", est)
	}
}

func TestFrequencySketch_DistinctKeys(t *testing.T) {
	sketch := newFrequencySketch(1024)

	keys := []string{"key1", "key2", "key3", "different-key", "another-one"}
	for i, key := range keys {
		h := stringHash(key)
		for j := 0; j <= i; j++ {
			sketch.Increment(h)
		}
	}

	for i, key := range keys {
		est := sketch.EstimateFrequency(stringHash(key))
		if est < uint64(i+1) {
			t.Errorf("key %q estimate = %d, want >= %d", key, est, i+1)
		}
	}
}

func BenchmarkFrequencySketch_Increment(b *testing.B) {
	sketch := newFrequencySketch(10000)
	keyHashes := make([]uint64, 1000)
	for i := range keyHashes {
		keyHashes[i] = stringHash("key" + strconv.Itoa(i))
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sketch.Increment(keyHashes[i%len(keyHashes)])
	}
}

func BenchmarkFrequencySketch_Estimate(b *testing.B) {
	sketch := newFrequencySketch(10000)
	keyHashes := make([]uint64, 1000)
	for i := range keyHashes {
		keyHashes[i] = stringHash("key" + strconv.Itoa(i))
		sketch.Increment(keyHashes[i])
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sketch.EstimateFrequency(keyHashes[i%len(keyHashes)])
	}
}
