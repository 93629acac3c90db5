package batch

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()
	defer pool.Close()

	var counter int64
	const jobs = 50

	for i := 0; i < jobs; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if got := atomic.LoadInt64(&counter); got != jobs {
		t.Fatalf("expected %d jobs to run, got %d", jobs, got)
	}
}

func TestPoolWaitBlocksUntilDone(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	defer pool.Close()

	var mu sync.Mutex
	done := 0

	for i := 0; i < 8; i++ {
		pool.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			done++
			mu.Unlock()
		})
	}
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	if done != 8 {
		t.Fatalf("Wait returned before all jobs finished: %d of 8", done)
	}
}

func TestPoolDefaultsWorkerCount(t *testing.T) {
	pool := NewPool(0)
	if pool.workers < 1 {
		t.Fatalf("expected a positive default worker count, got %d", pool.workers)
	}
}
