// policy.go: time-based expiration policies
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"math"
	"sync/atomic"
	"time"
)

// maxTTL bounds the tick representation of a TTL so that now+ttl arithmetic
// cannot overflow int64 nanoseconds even on clocks far from their origin.
const maxTTL = time.Duration(math.MaxInt64 / 100)

// expiryPolicy decides when an entry's lifetime ends. All timestamps are
// nanoseconds from the configured TimeProvider, which must be monotonic
// enough for interval arithmetic (the default go-timecache source caches the
// wall clock at roughly millisecond resolution; entries therefore expire
// with up to one cache-refresh of slack).
//
// createItem and update run on writer goroutines, touch on reader
// goroutines; implementations store timestamps atomically on the node.
// shouldDiscard is consulted during maintenance routing and overrides the
// segment routing verdict: a discarded node is removed regardless of its
// access flag.
type expiryPolicy interface {
	// createItem builds a node with its initial expiry timestamp.
	createItem(key string, keyHash uint64, value any, now int64) *node
	// touch is invoked on a read hit.
	touch(n *node, now int64)
	// update is invoked when a value is written over an existing node.
	update(n *node, now int64)
	// shouldDiscard reports whether the node's lifetime has elapsed.
	shouldDiscard(n *node, now int64) bool
	// canDiscard reports whether this policy ever discards anything; it
	// lets maintenance skip expiry walks entirely for the no-op policy.
	canDiscard() bool
}

// validateTTL rejects non-positive TTLs and TTLs whose tick representation
// would overflow after conversion.
func validateTTL(ttl time.Duration) error {
	if ttl <= 0 || ttl > maxTTL {
		return NewErrInvalidTTL(ttl)
	}
	return nil
}

// noExpiry keeps entries alive until evicted or removed.
type noExpiry struct{}

func (noExpiry) createItem(key string, keyHash uint64, value any, _ int64) *node {
	return newNode(key, keyHash, value)
}

func (noExpiry) touch(*node, int64)  {}
func (noExpiry) update(*node, int64) {}

func (noExpiry) shouldDiscard(*node, int64) bool { return false }
func (noExpiry) canDiscard() bool                { return false }

// expireAfterWrite stamps the expiry on create and update only; reads do
// not extend an entry's life. The TTL is atomic so it can be re-tuned by
// hot configuration reload without a cache rebuild.
type expireAfterWrite struct {
	ttl ttlHolder
}

func newExpireAfterWrite(ttl time.Duration) *expireAfterWrite {
	p := &expireAfterWrite{}
	p.ttl.set(ttl)
	return p
}

func (p *expireAfterWrite) createItem(key string, keyHash uint64, value any, now int64) *node {
	n := newNode(key, keyHash, value)
	n.expireAt.Store(now + p.ttl.nanos())
	return n
}

func (p *expireAfterWrite) touch(*node, int64) {}

func (p *expireAfterWrite) update(n *node, now int64) {
	n.expireAt.Store(now + p.ttl.nanos())
}

func (p *expireAfterWrite) shouldDiscard(n *node, now int64) bool {
	return now > n.expireAt.Load()
}

func (p *expireAfterWrite) canDiscard() bool { return true }

// expireAfterAccess refreshes the timestamp on reads as well as writes.
type expireAfterAccess struct {
	ttl ttlHolder
}

func newExpireAfterAccess(ttl time.Duration) *expireAfterAccess {
	p := &expireAfterAccess{}
	p.ttl.set(ttl)
	return p
}

func (p *expireAfterAccess) createItem(key string, keyHash uint64, value any, now int64) *node {
	n := newNode(key, keyHash, value)
	n.expireAt.Store(now + p.ttl.nanos())
	return n
}

func (p *expireAfterAccess) touch(n *node, now int64) {
	n.expireAt.Store(now + p.ttl.nanos())
}

func (p *expireAfterAccess) update(n *node, now int64) {
	n.expireAt.Store(now + p.ttl.nanos())
}

func (p *expireAfterAccess) shouldDiscard(n *node, now int64) bool {
	return now > n.expireAt.Load()
}

func (p *expireAfterAccess) canDiscard() bool { return true }

// ExpiryCalculator computes per-event TTLs for the custom expiry policy.
// Any nil function keeps the entry's current remaining TTL for that event.
type ExpiryCalculator struct {
	// AfterCreate returns the TTL for a freshly inserted entry.
	AfterCreate func(key string, value any) time.Duration
	// AfterRead returns the TTL applied when an entry is read; current is
	// the remaining lifetime at the time of the read.
	AfterRead func(key string, value any, current time.Duration) time.Duration
	// AfterUpdate returns the TTL applied when an entry's value changes.
	AfterUpdate func(key string, value any, current time.Duration) time.Duration
}

// customExpiry delegates TTL computation to user callbacks.
type customExpiry struct {
	calc ExpiryCalculator
}

func newCustomExpiry(calc ExpiryCalculator) *customExpiry {
	return &customExpiry{calc: calc}
}

func (p *customExpiry) createItem(key string, keyHash uint64, value any, now int64) *node {
	n := newNode(key, keyHash, value)
	ttl := maxTTL
	if p.calc.AfterCreate != nil {
		ttl = clampTTL(p.calc.AfterCreate(key, value))
	}
	n.expireAt.Store(now + int64(ttl))
	return n
}

func (p *customExpiry) touch(n *node, now int64) {
	if p.calc.AfterRead == nil {
		return
	}
	current := time.Duration(n.expireAt.Load() - now)
	ttl := clampTTL(p.calc.AfterRead(n.key, n.value(), current))
	n.expireAt.Store(now + int64(ttl))
}

func (p *customExpiry) update(n *node, now int64) {
	if p.calc.AfterUpdate == nil {
		return
	}
	current := time.Duration(n.expireAt.Load() - now)
	ttl := clampTTL(p.calc.AfterUpdate(n.key, n.value(), current))
	n.expireAt.Store(now + int64(ttl))
}

func (p *customExpiry) shouldDiscard(n *node, now int64) bool {
	return now > n.expireAt.Load()
}

func (p *customExpiry) canDiscard() bool { return true }

// clampTTL folds out-of-range delegate results into the representable range
// instead of erroring: runtime callbacks have no construction-time check.
func clampTTL(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	if ttl > maxTTL {
		return maxTTL
	}
	return ttl
}

// ttlHolder stores a TTL in nanoseconds behind an atomic so live
// reconfiguration never tears a read.
type ttlHolder struct {
	v atomic.Int64
}

func (h *ttlHolder) set(ttl time.Duration) { h.v.Store(int64(ttl)) }
func (h *ttlHolder) nanos() int64          { return h.v.Load() }
