package performance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if !pool.Submit(func() {
			done.Add(1)
			wg.Done()
		}) {
			wg.Done()
		}
	}
	wg.Wait()

	if got := done.Load(); got == 0 {
		t.Fatal("no tasks ran")
	}
	stats := pool.Stats()
	if stats.TasksTotal != uint64(done.Load()) {
		t.Fatalf("stats.TasksTotal = %d, ran %d", stats.TasksTotal, done.Load())
	}
}

func TestWorkerPoolRejectsWhenStopped(t *testing.T) {
	pool := NewWorkerPool(2)
	if pool.Submit(func() {}) {
		t.Fatal("submit accepted before Start")
	}
	pool.Start()
	pool.Stop()
	if pool.Submit(func() {}) {
		t.Fatal("submit accepted after Stop")
	}
}

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("burst request %d denied", i)
		}
	}
	if rl.Allow() {
		t.Fatal("request beyond burst allowed")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.Allow() // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
}

func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	b.ResetTimer()
	var wg sync.WaitGroup
	for i := 0; i < b.N; i++ {
		wg.Add(1)
		task := func() {
			_ = i * i
			wg.Done()
		}
		if !pool.Submit(task) {
			task()
		}
	}
	wg.Wait()
}

func BenchmarkRateLimiter(b *testing.B) {
	rl := NewRateLimiter(1e9, 1e6)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rl.Allow()
	}
}
