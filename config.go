// config.go: configuration for Xanthos
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds configuration parameters for the cache.
type Config struct {
	// Capacity is the maximum number of entries the cache can hold.
	// Must be >= MinCapacity (one entry per segment) or 0 for the
	// default. Default: DefaultCapacity.
	Capacity int

	// HotRatio is the share of capacity given to the hot segment, where
	// new arrivals land. Must be in (0, 1). Default: DefaultHotRatio.
	HotRatio float64

	// ColdRatio is the share of capacity given to the cold segment, the
	// staging area entries are evicted from. Must be in (0, 1); the warm
	// segment receives the remainder. Default: DefaultColdRatio.
	ColdRatio float64

	// ExpireAfterWrite is the time-to-live measured from each insert or
	// update. Mutually exclusive with ExpireAfterAccess and Expiry.
	// If 0, entries never expire by write age.
	ExpireAfterWrite time.Duration

	// ExpireAfterAccess is the time-to-live refreshed by reads as well
	// as writes. Mutually exclusive with ExpireAfterWrite and Expiry.
	ExpireAfterAccess time.Duration

	// Expiry supplies per-event TTLs. Mutually exclusive with the two
	// fixed TTL modes.
	Expiry *ExpiryCalculator

	// DisableAdmission turns off the TinyLFU frequency filter, reverting
	// to plain segmented-LRU replacement. Default: admission on.
	DisableAdmission bool

	// ReadBufferSize is the per-stripe read buffer length, rounded up to
	// a power of two. Default: DefaultReadBufferSize.
	ReadBufferSize int

	// MaintenanceInterval is how often a background pass runs maintenance
	// and trims expired entries. If 0 and ExpireAfterWrite or
	// ExpireAfterAccess is set, it defaults to one tenth of that TTL
	// (minimum one second); if 0 with Expiry or with no expiration, no
	// background pass runs and maintenance stays purely amortized.
	MaintenanceInterval time.Duration

	// NegativeCacheTTL is the time-to-live for caching factory errors.
	// When GetOrAdd fails, the error can be cached to prevent repeated
	// expensive operations that consistently fail.
	// If 0, errors are not cached (default behavior).
	NegativeCacheTTL time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider provides current time for TTL calculations.
	// If nil, a default implementation is used. Default: cached system time.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting operation metrics.
	// If nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector

	// OnEvict is called from the maintenance pass when an entry is
	// evicted by the replacement policy. Must be fast and non-blocking.
	OnEvict func(key string, value interface{})

	// OnExpire is called from the maintenance pass when an entry is
	// removed because its lifetime elapsed. Must be fast and non-blocking.
	OnExpire func(key string, value interface{})
}

// Validate checks configuration parameters, applies defaults, and rejects
// combinations the cache cannot honor.
//
// This method is automatically called by New and NewGenericCache; it is
// exported so a normalized configuration can be inspected beforehand.
//
// Default values applied:
//   - Capacity: DefaultCapacity (10,000) if 0
//   - HotRatio / ColdRatio: DefaultHotRatio / DefaultColdRatio if 0
//   - ReadBufferSize: DefaultReadBufferSize if 0
//   - MaintenanceInterval: TTL/10 (minimum 1s) when a fixed TTL mode is set
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
func (c *Config) Validate() error {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Capacity < MinCapacity {
		return NewErrInvalidCapacity(c.Capacity)
	}

	if c.HotRatio == 0 {
		c.HotRatio = DefaultHotRatio
	}
	if c.ColdRatio == 0 {
		c.ColdRatio = DefaultColdRatio
	}
	if c.HotRatio <= 0 || c.HotRatio >= 1 || c.ColdRatio <= 0 || c.ColdRatio >= 1 ||
		c.HotRatio+c.ColdRatio >= 1 {
		return NewErrInvalidRatio(c.HotRatio, c.ColdRatio)
	}

	modes := 0
	if c.ExpireAfterWrite != 0 {
		if err := validateTTL(c.ExpireAfterWrite); err != nil {
			return err
		}
		modes++
	}
	if c.ExpireAfterAccess != 0 {
		if err := validateTTL(c.ExpireAfterAccess); err != nil {
			return err
		}
		modes++
	}
	if c.Expiry != nil {
		modes++
	}
	if modes > 1 {
		return NewErrMisconfiguredPolicy("choose one of ExpireAfterWrite, ExpireAfterAccess, Expiry")
	}

	if c.NegativeCacheTTL < 0 {
		return NewErrInvalidTTL(c.NegativeCacheTTL)
	}

	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.ReadBufferSize < 0 {
		return NewErrInvalidBufferSize(c.ReadBufferSize)
	}

	if c.MaintenanceInterval == 0 && modes > 0 {
		ttl := c.ExpireAfterWrite
		if ttl == 0 {
			ttl = c.ExpireAfterAccess
		}
		if ttl > 0 {
			c.MaintenanceInterval = ttl / 10
			if c.MaintenanceInterval < time.Second {
				c.MaintenanceInterval = time.Second
			}
		}
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:         DefaultCapacity,
		HotRatio:         DefaultHotRatio,
		ColdRatio:        DefaultColdRatio,
		ReadBufferSize:   DefaultReadBufferSize,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
// The cached clock refreshes at roughly millisecond resolution with zero
// allocations, which is the expiry slack documented on expiryPolicy.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
