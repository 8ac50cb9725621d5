package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIDSetAdd(t *testing.T) {
	s := NewIDSet()

	if !s.Add("R100") {
		t.Error("first Add should return true")
	}
	if s.Add("R100") {
		t.Error("duplicate Add should return false")
	}
	if !s.Contains("R100") {
		t.Error("Contains should report added ID")
	}
	if s.Contains("R999") {
		t.Error("Contains should not report unknown ID")
	}
	if s.Size() != 1 {
		t.Errorf("size = %d; want 1", s.Size())
	}
}

func TestIDSetSnapshotIsACopy(t *testing.T) {
	s := NewIDSet()
	s.Add("R100")

	snap := s.Snapshot()
	delete(snap, "R100")

	if !s.Contains("R100") {
		t.Error("mutating a snapshot must not affect the set")
	}
}

func TestIDSetConcurrentAdds(t *testing.T) {
	s := NewIDSet()
	ids := []string{"A", "B", "C", "D", "E"}

	var wg sync.WaitGroup
	var added int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				if s.Add(id) {
					atomic.AddInt32(&added, 1)
				}
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&added); got != int32(len(ids)) {
		t.Errorf("%d adds reported new; want %d", got, len(ids))
	}
	if s.Size() != len(ids) {
		t.Errorf("size = %d; want %d", s.Size(), len(ids))
	}
}

func TestRateLimiterEnforcesSpacing(t *testing.T) {
	interval := 30 * time.Millisecond
	limiter := NewRateLimiter(interval)

	var times []time.Time
	for i := 0; i < 3; i++ {
		limiter.Wait()
		times = append(times, time.Now())
	}

	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < interval {
			t.Errorf("gap %d = %v; want >= %v", i, gap, interval)
		}
	}
}

func TestRateLimiterZeroIntervalDoesNotBlock(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Wait()
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("100 waits took %v; zero interval should be a no-op", elapsed)
	}
}

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3)

	var done int32
	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			atomic.AddInt32(&done, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt32(&done); got != 10 {
		t.Errorf("%d jobs ran; want 10", got)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const maxWorkers = 2
	pool := NewWorkerPool(maxWorkers)

	var inFlight, peak int32
	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt32(&peak); got > maxWorkers {
		t.Errorf("peak concurrency = %d; want <= %d", got, maxWorkers)
	}
}
