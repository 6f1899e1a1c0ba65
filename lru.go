// lru.go: maintenance pass, segment routing and trim operations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"runtime"
)

// DoMaintenance runs one maintenance pass inline. If another pass holds the
// gate the call returns immediately; the holder will drain whatever this
// caller published.
func (c *segmentedCache) DoMaintenance() {
	c.tryMaintenance()
}

// tryMaintenance enters the gate without waiting. A contender that loses
// the race leaves a pending mark and returns; the holder re-checks the mark
// after its pass, so no published event waits for an unrelated trigger.
func (c *segmentedCache) tryMaintenance() {
	c.drainPending.Store(true)
	for c.drainPending.Load() {
		if !c.drainStatus.CompareAndSwap(drainIdle, drainRunning) {
			return
		}
		c.drainPending.Store(false)
		c.maintain()
		c.drainStatus.Store(drainIdle)
	}
}

// lockMaintenance spins until it owns the gate. Used by the operations that
// must actually observe their own pass (Clear, Trim, TrimExpired).
func (c *segmentedCache) lockMaintenance() {
	for !c.drainStatus.CompareAndSwap(drainIdle, drainRunning) {
		runtime.Gosched()
	}
}

func (c *segmentedCache) unlockMaintenance() {
	c.drainStatus.Store(drainIdle)
	if c.drainPending.Load() {
		c.tryMaintenance()
	}
}

// maintain drains the read buffers, then the write queue, then restores the
// segment capacity bounds. Runs with the gate held.
func (c *segmentedCache) maintain() {
	now := c.clock.Now()

	for _, buf := range c.readBuffers {
		for {
			drained := buf.DrainTo(c.drainBuf)
			for i := 0; i < drained; i++ {
				c.admission.recordAccess(c.drainBuf[i].keyHash)
				c.drainBuf[i] = nil
			}
			if drained < len(c.drainBuf) {
				break
			}
		}
	}

	for {
		e := c.writes.pop()
		if e == nil {
			break
		}
		switch e.op {
		case opAdd:
			c.applyAdd(e.n)
		case opUpdate:
			c.admission.recordAccess(e.n.keyHash)
		case opRemove:
			c.applyRemove(e.n)
		}
	}

	c.evictOverflow(now)
}

// applyAdd places a freshly inserted node at the tail of the hot segment.
func (c *segmentedCache) applyAdd(n *node) {
	if n.wasRemoved.Load() {
		// Removed before the insert was ever applied; the remove event
		// will find the node already detached.
		return
	}
	c.admission.recordAccess(n.keyHash)
	c.hot.enqueue(n)
}

// applyRemove detaches a node from whichever segment holds it. The physical
// unlink happens when the corpse reaches its queue's head.
func (c *segmentedCache) applyRemove(n *node) {
	switch n.segment.Load() {
	case segmentHot:
		c.hot.detach(n)
	case segmentWarm:
		c.warm.detach(n)
	case segmentCold:
		c.cold.detach(n)
	}
}

// evictOverflow restores the per-segment bounds. Demotions cascade
// hot -> warm -> cold -> out, but a promoted cold node can re-overflow warm
// after its sweep, so the pass repeats until the bounds hold. The round cap
// bounds the pass under concurrent access churn; any residue is caught by
// the next maintenance cycle.
func (c *segmentedCache) evictOverflow(now int64) {
	for round := 0; round < 4; round++ {
		for c.hot.count.Load() > int64(c.hotCap) {
			n := c.hot.pop()
			if n == nil {
				break
			}
			c.routeHot(n, now)
		}
		for c.warm.count.Load() > int64(c.warmCap) {
			n := c.warm.pop()
			if n == nil {
				break
			}
			c.routeWarm(n, now)
		}
		// Cold absorbs whatever capacity warm has not claimed yet, so its
		// bound is the total: eviction starts only once the cache is full.
		for c.Count() > c.capacity {
			n := c.cold.pop()
			if n == nil {
				break
			}
			c.routeCold(n, now)
		}
		if c.hot.count.Load() <= int64(c.hotCap) &&
			c.warm.count.Load() <= int64(c.warmCap) &&
			c.Count() <= c.capacity {
			break
		}
	}
}

// routeHot moves an overflowing hot node: accessed nodes earn warm
// residency, untouched ones go to cold through the admission gate.
func (c *segmentedCache) routeHot(n *node, now int64) {
	if n.wasRemoved.Load() {
		n.segment.Store(segmentDetached)
		return
	}
	if c.policy.shouldDiscard(n, now) {
		c.evictNode(n, true)
		return
	}
	if n.wasAccessed.Swap(false) {
		c.warm.enqueue(n)
		return
	}
	c.admitToCold(n)
}

// routeWarm re-circulates accessed nodes at the warm tail and demotes the
// rest to cold.
func (c *segmentedCache) routeWarm(n *node, now int64) {
	if n.wasRemoved.Load() {
		n.segment.Store(segmentDetached)
		return
	}
	if c.policy.shouldDiscard(n, now) {
		c.evictNode(n, true)
		return
	}
	if n.wasAccessed.Swap(false) {
		c.warm.enqueue(n)
		return
	}
	c.cold.enqueue(n)
}

// routeCold promotes accessed nodes to warm and evicts the rest.
func (c *segmentedCache) routeCold(n *node, now int64) {
	if n.wasRemoved.Load() {
		n.segment.Store(segmentDetached)
		return
	}
	if c.policy.shouldDiscard(n, now) {
		c.evictNode(n, true)
		return
	}
	if n.wasAccessed.Swap(false) {
		c.warm.enqueue(n)
		return
	}
	c.evictNode(n, false)
}

// admitToCold applies the frequency filter once the cache is full: the
// candidate must be strictly more popular than cold's next victim, so ties
// keep the incumbent.
func (c *segmentedCache) admitToCold(n *node) {
	if c.Count() >= c.capacity {
		if victim := c.cold.peek(); victim != nil {
			if !c.admission.admit(n.keyHash, victim.keyHash) {
				c.evictNode(n, false)
				return
			}
		}
	}
	c.cold.enqueue(n)
}

// evictNode removes a node that has already been popped from its segment.
func (c *segmentedCache) evictNode(n *node, expired bool) {
	n.segment.Store(segmentDetached)
	n.wasRemoved.Store(true)
	c.index.CompareAndDelete(n.key, n)

	value := n.value()
	if expired {
		c.expirations.Increment()
		c.metrics.RecordExpiration()
		if c.onExpire != nil {
			c.onExpire(n.key, value)
		}
	} else {
		c.evictions.Increment()
		c.metrics.RecordEviction()
		if c.onEvict != nil {
			c.onEvict(n.key, value)
		}
	}
}

// Clear removes all entries and resets statistics. Concurrent readers and
// writers may observe a partially cleared cache; that is acceptable for
// cache flush, shutdown and tests.
func (c *segmentedCache) Clear() {
	c.lockMaintenance()
	defer c.unlockMaintenance()

	for _, buf := range c.readBuffers {
		buf.Clear()
	}

	for {
		e := c.writes.pop()
		if e == nil {
			break
		}
		if e.op == opAdd {
			e.n.wasRemoved.Store(true)
			c.index.CompareAndDelete(e.n.key, e.n)
		}
	}

	for _, q := range []*fifoQueue{&c.hot, &c.warm, &c.cold} {
		for {
			n := q.pop()
			if n == nil {
				break
			}
			n.segment.Store(segmentDetached)
			n.wasRemoved.Store(true)
			c.index.CompareAndDelete(n.key, n)
		}
	}

	// Entries inserted while clearing was underway keep their index slot
	// but lost their queue event; sweep them out too.
	c.index.Range(func(key, v interface{}) bool {
		n := v.(*node)
		n.wasRemoved.Store(true)
		c.index.CompareAndDelete(key, v)
		return true
	})

	c.negativeCache.Range(func(key, _ interface{}) bool {
		c.negativeCache.Delete(key)
		return true
	})

	c.admission.clear()
	c.hits.Reset()
	c.misses.Reset()
	c.evictions.Reset()
	c.expirations.Reset()
}

// TrimExpired runs a maintenance pass, then walks the segments removing
// entries whose lifetime has elapsed. Best-effort single pass: an entry
// refreshed or inserted while the walk runs may survive it.
func (c *segmentedCache) TrimExpired() {
	c.tryMaintenance()
	if !c.policy.canDiscard() {
		return
	}

	c.lockMaintenance()
	defer c.unlockMaintenance()

	now := c.clock.Now()
	for _, q := range []*fifoQueue{&c.hot, &c.warm, &c.cold} {
		c.trimExpiredQueue(q, now)
	}
}

// trimExpiredQueue rebuilds a segment, dropping discarded entries while
// preserving FIFO order of the keepers.
func (c *segmentedCache) trimExpiredQueue(q *fifoQueue, now int64) {
	resident := q.count.Load()
	for i := int64(0); i < resident; i++ {
		n := q.pop()
		if n == nil {
			return
		}
		if n.wasRemoved.Load() {
			n.segment.Store(segmentDetached)
			continue
		}
		if c.policy.shouldDiscard(n, now) {
			c.evictNode(n, true)
			continue
		}
		q.enqueue(n)
	}
}

// Trim runs a maintenance pass, then removes up to n entries in eviction
// order: cold head first, then warm, then hot. Returns the number removed.
func (c *segmentedCache) Trim(n int) int {
	c.tryMaintenance()

	c.lockMaintenance()
	defer c.unlockMaintenance()

	removed := 0
	for _, q := range []*fifoQueue{&c.cold, &c.warm, &c.hot} {
		for removed < n {
			victim := q.pop()
			if victim == nil {
				break
			}
			if victim.wasRemoved.Load() {
				victim.segment.Store(segmentDetached)
				continue
			}
			c.evictNode(victim, false)
			removed++
		}
	}
	return removed
}
