package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrComputeCachesWithinTTL(t *testing.T) {
	c := New()
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrCompute("k", time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 1 {
		t.Errorf("expected first computed value, got %v", v)
	}

	v, err = c.GetOrCompute("k", time.Minute, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 1 {
		t.Errorf("expected cached value, got %v", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 compute call, got %d", calls)
	}
}

func TestGetOrComputeRecomputesAfterTTL(t *testing.T) {
	c := New()
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	if _, err := c.GetOrCompute("k", 20*time.Millisecond, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	v, err := c.GetOrCompute("k", 20*time.Millisecond, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 2 {
		t.Errorf("expected recomputed value 2, got %v", v)
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := New()
	calls := 0
	boom := errors.New("upstream down")

	_, err := c.GetOrCompute("k", time.Minute, func() (interface{}, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}

	// Next call must recompute instead of returning a stale value.
	v, err := c.GetOrCompute("k", time.Minute, func() (interface{}, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(string) != "ok" {
		t.Errorf("expected fresh value, got %v", v)
	}
	if calls != 2 {
		t.Errorf("expected 2 compute calls, got %d", calls)
	}
}

func TestGetOrComputeCollapsesConcurrentComputes(t *testing.T) {
	c := New()
	var calls int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.GetOrCompute("k", time.Minute, func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return "v", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected a single in-flight compute, got %d", got)
	}
}

func TestTypedGetOrCompute(t *testing.T) {
	c := New()
	v, err := GetOrCompute(c, "k", time.Minute, func() ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 || v[0] != "a" {
		t.Errorf("unexpected value: %v", v)
	}
}
