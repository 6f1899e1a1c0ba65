// padding.go: cache-line padded atomic counters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"sync/atomic"
)

// cacheLineSize is a reasonable default for most modern CPUs. The runtime's
// own constant is unexported; 64 works well in practice (128 on some ARM
// parts, where adjacent-line false sharing is still halved).
const cacheLineSize = 64

// paddedCell is an atomic int64 padded to exactly one cache line. LongAdder
// stripes are made of these so that cells hashed to by different goroutines
// never share a line.
type paddedCell struct {
	value atomic.Int64
	_     [cacheLineSize - 8]byte
}

// paddedHeadAndTail places the consumer head and producer tail of a ring
// buffer on distinct cache lines. The leading pad keeps head off the line of
// whatever field precedes the struct.
type paddedHeadAndTail struct {
	_    [cacheLineSize]byte
	head atomic.Int32
	_    [cacheLineSize - 4]byte
	tail atomic.Int32
	_    [cacheLineSize - 4]byte
}
