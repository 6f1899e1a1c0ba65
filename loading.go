// loading.go: GetOrAdd implementation with singleflight pattern
//
// This file implements the GetOrAdd and GetOrAddWithContext methods,
// providing cache-aside population with automatic deduplication of
// concurrent factory calls, so a missing hot key builds its value at most
// once instead of stampeding the backing store.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthos

import (
	"context"
	"sync/atomic"
)

// inflightCall represents an in-flight factory call. Results live in
// atomic.Value wrappers because atomic.Value cannot store nil directly;
// the done channel broadcasts completion to every waiter without spawning
// a goroutine per waiter.
type inflightCall struct {
	val  atomic.Value  // stores *resultWrapper
	err  atomic.Value  // stores *errorWrapper
	done chan struct{} // closed when the factory completes
}

// resultWrapper wraps a value to allow storing nil in atomic.Value
type resultWrapper struct {
	value interface{}
}

// errorWrapper wraps an error to allow storing nil in atomic.Value
type errorWrapper struct {
	err error
}

// negativeEntry caches a factory error until expireAt.
type negativeEntry struct {
	err      error
	expireAt int64
}

// GetOrAdd returns the cached value, or builds it with factory and caches
// the result. Concurrent callers for the same missing key execute the
// factory at most once.
//
// If the factory returns an error, the error is NOT cached unless
// NegativeCacheTTL is configured, in which case repeated failures are
// answered from the negative cache until the entry expires.
//
// Returns XANTHOS_INVALID_FACTORY if factory is nil,
// XANTHOS_PANIC_RECOVERED if the factory panics, or the factory's error.
func (c *segmentedCache) GetOrAdd(key string, factory func() (interface{}, error)) (interface{}, error) {
	if key == "" {
		return nil, NewErrEmptyKey("GetOrAdd")
	}

	if value, found := c.TryGet(key); found {
		return value, nil
	}

	if err, found := c.cachedFailure(key); found {
		return nil, err
	}

	if factory == nil {
		return nil, NewErrInvalidFactory(key)
	}

	flight, leader := c.joinFlight(key)
	if !leader {
		<-flight.done
		return flight.results()
	}

	defer c.finishFlight(key, flight)

	var value interface{}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = NewErrPanicRecovered("GetOrAdd:"+key, r)
			}
		}()
		value, err = factory()
	}()

	flight.val.Store(&resultWrapper{value: value})
	flight.err.Store(&errorWrapper{err: err})

	c.settleFlight(key, value, err)
	return value, err
}

// GetOrAddWithContext is like GetOrAdd but respects context cancellation
// and timeout. The context is passed to the factory; a waiter whose context
// expires stops waiting while the factory still completes for the others.
func (c *segmentedCache) GetOrAddWithContext(ctx context.Context, key string, factory func(context.Context) (interface{}, error)) (interface{}, error) {
	if key == "" {
		return nil, NewErrEmptyKey("GetOrAddWithContext")
	}

	if value, found := c.TryGet(key); found {
		return value, nil
	}

	if err, found := c.cachedFailure(key); found {
		return nil, err
	}

	if factory == nil {
		return nil, NewErrInvalidFactory(key)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flight, leader := c.joinFlight(key)
	if !leader {
		select {
		case <-flight.done:
			return flight.results()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	defer c.finishFlight(key, flight)

	var value interface{}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = NewErrPanicRecovered("GetOrAddWithContext:"+key, r)
			}
		}()
		value, err = factory(ctx)
	}()

	flight.val.Store(&resultWrapper{value: value})
	flight.err.Store(&errorWrapper{err: err})

	c.settleFlight(key, value, err)
	return value, err
}

// cachedFailure consults the negative cache.
func (c *segmentedCache) cachedFailure(key string) (error, bool) {
	if c.negativeTTL <= 0 {
		return nil, false
	}
	negKey := "neg:" + key
	v, found := c.negativeCache.Load(negKey)
	if !found {
		return nil, false
	}
	neg := v.(negativeEntry)
	if c.clock.Now() <= neg.expireAt {
		return neg.err, true
	}
	c.negativeCache.Delete(negKey)
	return nil, false
}

// joinFlight registers this caller on the key's in-flight call, reporting
// whether it is the leader that must run the factory.
func (c *segmentedCache) joinFlight(key string) (*inflightCall, bool) {
	newFlight := &inflightCall{done: make(chan struct{})}
	actual, loaded := c.inflight.LoadOrStore("load:"+key, newFlight)
	return actual.(*inflightCall), !loaded
}

// finishFlight broadcasts completion and retires the flight entry.
func (c *segmentedCache) finishFlight(key string, flight *inflightCall) {
	close(flight.done)
	c.inflight.Delete("load:" + key)
}

// settleFlight publishes a successful value to the cache, or the failure to
// the negative cache when enabled.
func (c *segmentedCache) settleFlight(key string, value interface{}, err error) {
	if err == nil && value != nil {
		c.AddOrUpdate(key, value)
		return
	}
	if err != nil && c.negativeTTL > 0 {
		c.negativeCache.Store("neg:"+key, negativeEntry{
			err:      err,
			expireAt: c.clock.Now() + c.negativeTTL,
		})
	}
}

// results reads a completed flight's outcome.
func (f *inflightCall) results() (interface{}, error) {
	valWrapper, _ := f.val.Load().(*resultWrapper)
	errWrapper, _ := f.err.Load().(*errorWrapper)
	if valWrapper == nil || errWrapper == nil {
		return nil, nil
	}
	return valWrapper.value, errWrapper.err
}
