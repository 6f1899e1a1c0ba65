// cache_generic.go: type-safe generic cache API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"fmt"
	"strconv"
)

// GenericCache provides a type-safe cache interface using Go generics.
// K must be comparable (can be used as map key).
// V can be any type.
//
// Example:
//
//	cache, err := xanthos.NewGenericCache[string, User](xanthos.Config{
//	    Capacity:         10_000,
//	    ExpireAfterWrite: time.Hour,
//	})
//	cache.AddOrUpdate("user:123", user)
//	if value, found := cache.TryGet("user:123"); found {
//	    fmt.Printf("User: %+v\n", value)
//	}
type GenericCache[K comparable, V any] struct {
	inner Cache
}

// NewGenericCache creates a new type-safe generic cache.
func NewGenericCache[K comparable, V any](cfg Config) (*GenericCache[K, V], error) {
	inner, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &GenericCache[K, V]{inner: inner}, nil
}

// TryGet retrieves a value from the cache.
// Returns the zero value and false if the key is absent or expired, or if
// the stored value has a different dynamic type.
func (c *GenericCache[K, V]) TryGet(key K) (value V, found bool) {
	val, found := c.inner.TryGet(keyToString(key))
	if !found {
		var zero V
		return zero, false
	}

	typedValue, ok := val.(V)
	if !ok {
		var zero V
		return zero, false
	}
	return typedValue, true
}

// AddOrUpdate stores a key-value pair, inserting or overwriting.
func (c *GenericCache[K, V]) AddOrUpdate(key K, value V) {
	c.inner.AddOrUpdate(keyToString(key), value)
}

// TryUpdate overwrites the value of an existing entry.
func (c *GenericCache[K, V]) TryUpdate(key K, value V) bool {
	return c.inner.TryUpdate(keyToString(key), value)
}

// TryRemove removes a key from the cache.
func (c *GenericCache[K, V]) TryRemove(key K) bool {
	return c.inner.TryRemove(keyToString(key))
}

// Has checks if a key exists in the cache without retrieving it.
func (c *GenericCache[K, V]) Has(key K) bool {
	return c.inner.Has(keyToString(key))
}

// GetOrAdd returns the cached value, or builds it with factory and caches
// the result, deduplicating concurrent calls for the same key.
func (c *GenericCache[K, V]) GetOrAdd(key K, factory func() (V, error)) (V, error) {
	val, err := c.inner.GetOrAdd(keyToString(key), func() (interface{}, error) {
		return factory()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	typedValue, ok := val.(V)
	if !ok {
		var zero V
		return zero, nil
	}
	return typedValue, nil
}

// Count returns the current number of resident entries.
func (c *GenericCache[K, V]) Count() int {
	return c.inner.Count()
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *GenericCache[K, V]) Capacity() int {
	return c.inner.Capacity()
}

// Clear removes all entries from the cache and resets statistics.
func (c *GenericCache[K, V]) Clear() {
	c.inner.Clear()
}

// DoMaintenance runs one maintenance pass inline.
func (c *GenericCache[K, V]) DoMaintenance() {
	c.inner.DoMaintenance()
}

// TrimExpired removes entries whose lifetime has elapsed (best-effort
// single pass).
func (c *GenericCache[K, V]) TrimExpired() {
	c.inner.TrimExpired()
}

// Trim removes up to n entries in eviction order. Returns the number
// removed.
func (c *GenericCache[K, V]) Trim(n int) int {
	return c.inner.Trim(n)
}

// Stats returns current cache statistics.
func (c *GenericCache[K, V]) Stats() CacheStats {
	return c.inner.Stats()
}

// Close cleans up cache resources and stops background maintenance.
// After calling Close, the cache should not be used.
func (c *GenericCache[K, V]) Close() error {
	return c.inner.Close()
}

// keyToString converts a key of any comparable type to string efficiently.
// Uses type switch to avoid allocations for common types (string, int, uint).
// Falls back to fmt.Sprintf for other types.
func keyToString[K comparable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		// Allocates, but only for uncommon key types (structs, arrays).
		return fmt.Sprintf("%v", key)
	}
}
