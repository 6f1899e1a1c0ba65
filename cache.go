// cache.go: segmented LRU cache core with deferred maintenance
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Maintenance gate states. A contender that finds the gate held skips the
// pass instead of waiting; the holder drains everything that is pending.
const (
	drainIdle int32 = iota
	drainRunning
)

// segmentedCache partitions capacity across hot, warm and cold FIFO
// segments. Lookups go through a concurrent index and stay wait-free on
// hits: the hit is batched into a striped ring buffer and the replacement
// bookkeeping happens later, in a single gated maintenance pass that also
// drains the write queue, applies expirations, and consults the admission
// policy.
type segmentedCache struct {
	// Configuration (immutable after creation)
	capacity int
	hotCap   int
	warmCap  int
	coldCap  int

	clock     TimeProvider
	policy    expiryPolicy
	admission admissionPolicy

	// Key -> *node. Concurrently readable and writable; segment
	// membership is reconciled by maintenance.
	index sync.Map

	// FIFO segments, maintenance-owned.
	hot  fifoQueue
	warm fifoQueue
	cold fifoQueue

	// Striped read buffers; stripe selected by key hash.
	readBuffers []*mpscBuffer[node]
	readMask    uint64
	drainBuf    []*node // maintenance-owned scratch

	writes *writeQueue

	drainStatus  atomic.Int32
	drainPending atomic.Bool

	// Hot-path statistics; striped so readers do not serialize on them.
	hits        LongAdder
	misses      LongAdder
	evictions   LongAdder
	expirations LongAdder

	logger        Logger
	metrics       MetricsCollector
	recordLatency bool
	onEvict       func(key string, value interface{})
	onExpire      func(key string, value interface{})

	// GetOrAdd state
	inflight      sync.Map
	negativeCache sync.Map
	negativeTTL   int64

	closed atomic.Bool
	stop   chan struct{}
	done   chan struct{}
}

// New creates a cache from config. Invalid configurations (capacity below
// MinCapacity, out-of-range ratios or TTLs, combined expiration modes) are
// rejected here and never at operation time.
func New(config Config) (Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	hotCap := int(float64(config.Capacity) * config.HotRatio)
	if hotCap < 1 {
		hotCap = 1
	}
	coldCap := int(float64(config.Capacity) * config.ColdRatio)
	if coldCap < 1 {
		coldCap = 1
	}
	warmCap := config.Capacity - hotCap - coldCap

	stripes := nextPowerOf2(runtime.GOMAXPROCS(0))
	readBuffers := make([]*mpscBuffer[node], stripes)
	for i := range readBuffers {
		buf, err := newMpscBuffer[node](config.ReadBufferSize)
		if err != nil {
			return nil, err
		}
		readBuffers[i] = buf
	}

	var policy expiryPolicy = noExpiry{}
	switch {
	case config.ExpireAfterWrite > 0:
		policy = newExpireAfterWrite(config.ExpireAfterWrite)
	case config.ExpireAfterAccess > 0:
		policy = newExpireAfterAccess(config.ExpireAfterAccess)
	case config.Expiry != nil:
		policy = newCustomExpiry(*config.Expiry)
	}

	var admission admissionPolicy = alwaysAdmit{}
	if !config.DisableAdmission {
		admission = newTinyLFU(config.Capacity)
	}

	_, noopMetrics := config.MetricsCollector.(NoOpMetricsCollector)

	c := &segmentedCache{
		capacity:      config.Capacity,
		hotCap:        hotCap,
		warmCap:       warmCap,
		coldCap:       coldCap,
		clock:         config.TimeProvider,
		policy:        policy,
		admission:     admission,
		readBuffers:   readBuffers,
		readMask:      uint64(stripes - 1), // #nosec G115 - stripes is a small power of 2
		drainBuf:      make([]*node, readBuffers[0].Capacity()),
		writes:        newWriteQueue(),
		logger:        config.Logger,
		metrics:       config.MetricsCollector,
		recordLatency: !noopMetrics,
		onEvict:       config.OnEvict,
		onExpire:      config.OnExpire,
		negativeTTL:   int64(config.NegativeCacheTTL),
	}
	c.hot.tag = segmentHot
	c.warm.tag = segmentWarm
	c.cold.tag = segmentCold

	if config.MaintenanceInterval > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.maintenanceLoop(config.MaintenanceInterval)
	}

	return c, nil
}

// TryGet retrieves a value. Hits mark the node accessed and batch the hit
// event into a read buffer stripe; the segment lists are never touched here.
func (c *segmentedCache) TryGet(key string) (interface{}, bool) {
	var start int64
	if c.recordLatency {
		start = c.clock.Now()
	}

	v, ok := c.index.Load(key)
	if !ok {
		c.misses.Increment()
		if c.recordLatency {
			c.metrics.RecordGet(c.clock.Now()-start, false)
		}
		return nil, false
	}

	n := v.(*node)
	now := c.clock.Now()
	if n.wasRemoved.Load() || c.policy.shouldDiscard(n, now) {
		// Pending removal or elapsed lifetime: absent to callers. A removal
		// is reaped by the next maintenance pass; an expired node is reaped
		// when maintenance routes it or TrimExpired walks its segment.
		c.misses.Increment()
		c.tryMaintenance()
		if c.recordLatency {
			c.metrics.RecordGet(c.clock.Now()-start, false)
		}
		return nil, false
	}

	value := n.value()
	n.wasAccessed.Store(true)
	c.policy.touch(n, now)
	c.afterRead(n)
	c.hits.Increment()
	if c.recordLatency {
		c.metrics.RecordGet(c.clock.Now()-start, true)
	}
	return value, true
}

// Has checks if a key exists without marking it accessed.
func (c *segmentedCache) Has(key string) bool {
	v, ok := c.index.Load(key)
	if !ok {
		return false
	}
	n := v.(*node)
	return !n.wasRemoved.Load() && !c.policy.shouldDiscard(n, c.clock.Now())
}

// AddOrUpdate stores a key-value pair, inserting or overwriting.
func (c *segmentedCache) AddOrUpdate(key string, value interface{}) {
	var start int64
	if c.recordLatency {
		start = c.clock.Now()
	}

	keyHash := stringHash(key)
	for {
		now := c.clock.Now()
		if v, ok := c.index.Load(key); ok {
			n := v.(*node)
			if n.wasRemoved.Load() {
				// Removal pending: clear the tombstone and insert fresh.
				c.index.CompareAndDelete(key, v)
				continue
			}
			n.setValue(value)
			c.policy.update(n, now)
			n.wasAccessed.Store(true)
			c.afterWrite(n, opUpdate)
			break
		}

		n := c.policy.createItem(key, keyHash, value, now)
		if _, loaded := c.index.LoadOrStore(key, n); loaded {
			continue
		}
		c.afterWrite(n, opAdd)
		break
	}

	if c.recordLatency {
		c.metrics.RecordSet(c.clock.Now() - start)
	}
}

// TryUpdate overwrites the value of an existing, unexpired entry.
func (c *segmentedCache) TryUpdate(key string, value interface{}) bool {
	v, ok := c.index.Load(key)
	if !ok {
		return false
	}
	n := v.(*node)
	now := c.clock.Now()
	if n.wasRemoved.Load() || c.policy.shouldDiscard(n, now) {
		return false
	}
	n.setValue(value)
	c.policy.update(n, now)
	n.wasAccessed.Store(true)
	c.afterWrite(n, opUpdate)
	return true
}

// TryRemove removes an entry. The index entry goes immediately; the segment
// link is reclaimed lazily by maintenance.
func (c *segmentedCache) TryRemove(key string) bool {
	var start int64
	if c.recordLatency {
		start = c.clock.Now()
	}

	v, ok := c.index.Load(key)
	if !ok {
		return false
	}
	n := v.(*node)
	if !n.wasRemoved.CompareAndSwap(false, true) {
		return false
	}
	c.index.CompareAndDelete(key, v)
	c.afterWrite(n, opRemove)

	if c.recordLatency {
		c.metrics.RecordDelete(c.clock.Now() - start)
	}
	return true
}

// Count returns the number of resident entries; staleness is bounded by one
// maintenance cycle.
func (c *segmentedCache) Count() int {
	return int(c.hot.count.Load() + c.warm.count.Load() + c.cold.count.Load())
}

// Capacity returns the configured maximum number of entries.
func (c *segmentedCache) Capacity() int {
	return c.capacity
}

// Stats returns a statistics snapshot. Counter sums are approximate under
// concurrent operations.
func (c *segmentedCache) Stats() CacheStats {
	return CacheStats{
		Hits:        uint64(c.hits.Sum()),        // #nosec G115 - adder sums are clamped non-negative
		Misses:      uint64(c.misses.Sum()),      // #nosec G115 - adder sums are clamped non-negative
		Evictions:   uint64(c.evictions.Sum()),   // #nosec G115 - adder sums are clamped non-negative
		Expirations: uint64(c.expirations.Sum()), // #nosec G115 - adder sums are clamped non-negative
		Size:        c.Count(),
		Capacity:    c.capacity,
	}
}

// SetTTL retunes the expiration window of a fixed TTL policy at runtime.
func (c *segmentedCache) SetTTL(ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	switch p := c.policy.(type) {
	case *expireAfterWrite:
		p.ttl.set(ttl)
	case *expireAfterAccess:
		p.ttl.set(ttl)
	default:
		return NewErrMisconfiguredPolicy("cache has no fixed TTL policy")
	}
	c.logger.Info("cache TTL updated", "ttl", ttl)
	return nil
}

// Close stops the background maintenance pass, if any, and clears the cache.
func (c *segmentedCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.stop != nil {
		close(c.stop)
		<-c.done
	}
	c.Clear()
	return nil
}

// afterRead batches a hit event; a full stripe triggers a maintenance pass.
func (c *segmentedCache) afterRead(n *node) {
	buf := c.readBuffers[n.keyHash&c.readMask]
	if buf.TryAdd(n) == BufferFull {
		c.tryMaintenance()
	}
	// BufferContended drops the event: the access flag is already set, so
	// the only loss is one sketch increment.
}

// afterWrite publishes a write event and triggers maintenance.
func (c *segmentedCache) afterWrite(n *node, op writeOp) {
	c.writes.push(&writeEvent{n: n, op: op})
	c.tryMaintenance()
}

// maintenanceLoop periodically reaps expired entries while the cache sits
// idle.
func (c *segmentedCache) maintenanceLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.TrimExpired()
		case <-c.stop:
			return
		}
	}
}
