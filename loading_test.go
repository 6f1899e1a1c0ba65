// loading_test.go: tests for GetOrAdd and stampede protection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"context"
	goerrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrAdd_CachesValue(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	calls := 0
	for i := 0; i < 3; i++ {
		value, err := cache.GetOrAdd("key", func() (interface{}, error) {
			calls++
			return "loaded", nil
		})
		if err != nil {
			t.Fatalf("GetOrAdd error = %v", err)
		}
		if value != "loaded" {
			t.Errorf("GetOrAdd = %v, want loaded", value)
		}
	}

	if calls != 1 {
		t.Errorf("factory calls = %d, want 1", calls)
	}
}

func TestGetOrAdd_EmptyKey(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	_, err := cache.GetOrAdd("", func() (interface{}, error) { return 1, nil })
	if err == nil {
		t.Fatal("GetOrAdd with empty key expected error")
	}
	if !IsEmptyKey(err) {
		t.Errorf("error = %v, want empty key error", err)
	}
}

func TestGetOrAdd_NilFactory(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	_, err := cache.GetOrAdd("key", nil)
	if err == nil {
		t.Fatal("GetOrAdd with nil factory expected error")
	}
	if GetErrorCode(err) != ErrCodeInvalidFactory {
		t.Errorf("error code = %v, want %v", GetErrorCode(err), ErrCodeInvalidFactory)
	}
}

func TestGetOrAdd_ErrorNotCached(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	calls := 0
	boom := goerrors.New("boom")
	factory := func() (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "recovered", nil
	}

	if _, err := cache.GetOrAdd("key", factory); !goerrors.Is(err, boom) {
		t.Fatalf("first GetOrAdd error = %v, want boom", err)
	}

	value, err := cache.GetOrAdd("key", factory)
	if err != nil {
		t.Fatalf("second GetOrAdd error = %v", err)
	}
	if value != "recovered" || calls != 2 {
		t.Errorf("GetOrAdd = (%v, calls=%d), want (recovered, 2)", value, calls)
	}
}

func TestGetOrAdd_NegativeCache(t *testing.T) {
	mockTime := &MockTimeProvider{currentTime: 1000000000}
	cache, _ := New(Config{
		Capacity:         100,
		NegativeCacheTTL: time.Second,
		TimeProvider:     mockTime,
	})
	defer cache.Close()

	calls := 0
	boom := goerrors.New("backend down")
	factory := func() (interface{}, error) {
		calls++
		return nil, boom
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrAdd("key", factory); !goerrors.Is(err, boom) {
			t.Fatalf("GetOrAdd #%d error = %v, want boom", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("factory calls with negative cache = %d, want 1", calls)
	}

	// Past the negative TTL the factory is consulted again.
	mockTime.Advance(2 * time.Second)
	if _, err := cache.GetOrAdd("key", factory); !goerrors.Is(err, boom) {
		t.Fatalf("GetOrAdd after negative TTL error = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("factory calls = %d, want 2", calls)
	}
}

func TestGetOrAdd_PanicRecovered(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	_, err := cache.GetOrAdd("key", func() (interface{}, error) {
		panic("factory exploded")
	})
	if err == nil {
		t.Fatal("expected error from panicking factory")
	}
	if GetErrorCode(err) != ErrCodePanicRecovered {
		t.Errorf("error code = %v, want %v", GetErrorCode(err), ErrCodePanicRecovered)
	}

	// The key stays absent and loadable.
	value, err := cache.GetOrAdd("key", func() (interface{}, error) {
		return "fine", nil
	})
	if err != nil || value != "fine" {
		t.Errorf("GetOrAdd after panic = (%v, %v), want (fine, nil)", value, err)
	}
}

// TestGetOrAdd_Singleflight: concurrent misses on one key run the factory
// exactly once; every caller observes the same value.
func TestGetOrAdd_Singleflight(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	const waiters = 32

	var calls atomic.Int64
	gate := make(chan struct{})
	factory := func() (interface{}, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]interface{}, waiters)
	errs := make([]error, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrAdd("hot", factory)
		}(i)
	}

	// Give the stragglers time to pile onto the flight, then release it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("factory calls = %d, want 1", calls.Load())
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d error = %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("waiter %d = %v, want shared", i, results[i])
		}
	}
}

func TestGetOrAddWithContext_CancelledBeforeCall(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.GetOrAddWithContext(ctx, "key", func(context.Context) (interface{}, error) {
		t.Error("factory must not run with a cancelled context")
		return nil, nil
	})
	if !goerrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGetOrAddWithContext_WaiterTimesOut(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	gate := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _ = cache.GetOrAddWithContext(context.Background(), "slow",
			func(context.Context) (interface{}, error) {
				close(started)
				<-gate
				return "late", nil
			})
	}()

	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := cache.GetOrAddWithContext(ctx, "slow",
		func(context.Context) (interface{}, error) { return nil, nil })
	if !goerrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("waiter error = %v, want context.DeadlineExceeded", err)
	}

	close(gate)
}

func TestGetOrAddWithContext_Success(t *testing.T) {
	cache, _ := New(Config{Capacity: 100})
	defer cache.Close()

	value, err := cache.GetOrAddWithContext(context.Background(), "key",
		func(ctx context.Context) (interface{}, error) {
			return "ctx-loaded", nil
		})
	if err != nil || value != "ctx-loaded" {
		t.Errorf("GetOrAddWithContext = (%v, %v), want (ctx-loaded, nil)", value, err)
	}

	// Now resident: the fast path serves it.
	value, err = cache.GetOrAddWithContext(context.Background(), "key",
		func(ctx context.Context) (interface{}, error) {
			t.Error("factory ran on a resident key")
			return nil, nil
		})
	if err != nil || value != "ctx-loaded" {
		t.Errorf("second GetOrAddWithContext = (%v, %v), want (ctx-loaded, nil)", value, err)
	}
}
