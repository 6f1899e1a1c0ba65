// Package xanthos provides a bounded concurrent cache with segmented LRU
// eviction and TinyLFU admission.
//
// Xanthos partitions capacity into hot, warm and cold FIFO segments and
// batches read hits through lock-free ring buffers, so cache hits stay
// wait-free while a single maintenance pass amortises all replacement
// bookkeeping.
//
// Example usage:
//
//	cache, err := xanthos.New(xanthos.Config{
//		Capacity:         10_000,
//		ExpireAfterWrite: time.Minute,
//	})
//
//	cache.AddOrUpdate("key", "value")
//	value, found := cache.TryGet("key")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package xanthos

const (
	// Version of Xanthos cache library
	Version = "v0.1.0-dev"

	// DefaultCapacity is the default maximum number of entries
	DefaultCapacity = 10_000

	// DefaultHotRatio is the default share of capacity given to the hot segment
	DefaultHotRatio = 0.1

	// DefaultColdRatio is the default share of capacity given to the cold segment
	DefaultColdRatio = 0.1

	// DefaultReadBufferSize is the default per-stripe read buffer length
	DefaultReadBufferSize = 128

	// MinCapacity is the smallest usable capacity: one entry per segment
	MinCapacity = 3
)
