// Package xanthos provides a high-performance, thread-safe, in-memory cache
// built around a three-segment LRU replacement policy with TinyLFU
// frequency-aware admission.
//
// # Overview
//
// Xanthos is designed for read-heavy workloads under contention:
//   - Wait-free hits: lookups touch a concurrent index and a lock-free
//     ring buffer, never the replacement lists
//   - Amortized maintenance: a single gated pass drains buffered events
//     and performs all promotions, demotions, evictions and expirations
//   - Scan resistance: a 4-bit Count-Min sketch filters one-hit wonders
//     out of the protected segments
//   - Type safety: GenericCache[K comparable, V any] wrapper
//
// # Architecture
//
// Capacity is partitioned across three FIFO segments:
//
//   - Hot (~10%): where new arrivals land
//   - Warm (~80%): entries that proved themselves by being re-accessed
//   - Cold (~10%): staging area entries are evicted from
//
// A read hit marks the entry accessed and batches a hit event into a
// striped multi-producer/single-consumer ring buffer. Writers insert
// through the index and append an event to an unbounded write queue. The
// maintenance pass — triggered by a full read stripe, by write publication,
// or by an explicit DoMaintenance call — drains both, feeds the frequency
// sketch, and routes entries between segments:
//
//   - hot overflow: accessed entries move to warm, the rest face the
//     admission filter on their way to cold
//   - warm overflow: accessed entries re-circulate, the rest demote
//   - cold overflow: accessed entries are rescued to warm, the rest are
//     evicted
//
// With admission enabled, a candidate demoted from hot displaces cold's
// next victim only when the sketch estimates it strictly more popular;
// ties keep the incumbent.
//
// # Quick Start
//
//	import "github.com/agilira/xanthos"
//
//	type User struct {
//	    ID   int
//	    Name string
//	}
//
//	func main() {
//	    cache, err := xanthos.NewGenericCache[string, User](xanthos.Config{
//	        Capacity:         10_000,
//	        ExpireAfterWrite: time.Hour,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer cache.Close()
//
//	    cache.AddOrUpdate("user:123", User{ID: 123, Name: "Alice"})
//
//	    if user, found := cache.TryGet("user:123"); found {
//	        fmt.Printf("User: %s\n", user.Name)
//	    }
//
//	    stats := cache.Stats()
//	    fmt.Printf("Hit ratio: %.2f%%\n", stats.HitRatio())
//	}
//
// # Expiration
//
// Three mutually exclusive modes, all driven by a monotonic-leaning
// TimeProvider (the default caches the system clock at roughly millisecond
// resolution):
//
//   - ExpireAfterWrite: lifetime measured from each insert or update
//   - ExpireAfterAccess: lifetime refreshed by reads as well
//   - Expiry: an ExpiryCalculator computing per-event TTLs
//
// Expired entries are treated as absent by readers and reaped during
// maintenance. TrimExpired walks the segments eagerly; it is a best-effort
// single pass, so callers that need a strict bound should repeat it until
// no items remain.
//
// # Cache Stampede Prevention
//
// GetOrAdd deduplicates concurrent factory calls per key:
//
//	user, err := cache.GetOrAdd("user:123", func() (interface{}, error) {
//	    // Runs at most once even if 1000 goroutines miss concurrently.
//	    return fetchUserFromDB(123)
//	})
//
// With context support for timeout and cancellation:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	user, err := cache.GetOrAddWithContext(ctx, "user:123",
//	    func(ctx context.Context) (interface{}, error) {
//	        return fetchUserFromDBWithContext(ctx, 123)
//	    })
//
// Factory errors are not cached unless Config.NegativeCacheTTL is set, in
// which case repeated failures are answered from a negative cache until the
// entry expires.
//
// # Observability
//
// The MetricsCollector interface receives operation latencies, hit/miss
// results, evictions and expirations; the companion module
// github.com/agilira/xanthos/otel implements it over OpenTelemetry. Hot
// counters are striped LongAdders, so statistics collection never
// serializes the data path.
//
// # Dynamic Configuration
//
// NewHotConfig watches a configuration file through Argus and retunes the
// expire-after-write TTL of a running cache without a rebuild:
//
//	hc, err := xanthos.NewHotConfig(cache, xanthos.HotConfigOptions{
//	    ConfigPath: "/etc/myapp/cache.yaml",
//	})
//	if err == nil {
//	    _ = hc.Start()
//	    defer hc.Stop()
//	}
//
// # Consistency Model
//
// Per-key operations observed by a single goroutine are sequentially
// consistent: a TryGet after AddOrUpdate on the same key from the same
// goroutine always observes the updated value. Operations on different
// keys are unordered across goroutines. Count is a snapshot whose
// staleness is bounded by one maintenance cycle. Segment movements are
// never observable through the public interface.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package xanthos
