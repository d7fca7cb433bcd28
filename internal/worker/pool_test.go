package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errScoring = errors.New("scoring failed")

// scoreResult implements Result
type scoreResult struct {
	id  string
	err error
}

func (r *scoreResult) GetError() error { return r.err }

// scoreJob pretends to score an article, optionally taking time or failing
type scoreJob struct {
	id      string
	delay   time.Duration
	fail    bool
	counter *int32
	before  func()
	after   func()
}

func (j *scoreJob) Execute(ctx context.Context) Result {
	if j.counter != nil {
		atomic.AddInt32(j.counter, 1)
	}
	if j.before != nil {
		j.before()
	}
	if j.after != nil {
		defer j.after()
	}
	if j.delay > 0 {
		timer := time.NewTimer(j.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return &scoreResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.fail {
		return &scoreResult{id: j.id, err: errScoring}
	}
	return &scoreResult{id: j.id}
}

func TestNewPool_WorkerCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 4, want: 4},
		{in: 1, want: 1},
		{in: 0, want: 1},
		{in: -3, want: 1},
	}
	for _, tt := range tests {
		p := NewPool(context.Background(), tt.in)
		if p.workers != tt.want {
			t.Errorf("NewPool(%d): workers = %d, want %d", tt.in, p.workers, tt.want)
		}
		if cap(p.jobQueue) != tt.want*2 {
			t.Errorf("NewPool(%d): queue capacity = %d, want %d", tt.in, cap(p.jobQueue), tt.want*2)
		}
	}
}

func TestNewPool_NilContext(t *testing.T) {
	p := NewPool(nil, 2)
	p.Start()
	p.Submit(&scoreJob{id: "a"})
	if got := len(p.Wait()); got != 1 {
		t.Fatalf("expected 1 result, got %d", got)
	}
}

func TestPool_RunsEverySubmittedJob(t *testing.T) {
	p := NewPool(context.Background(), 3)
	p.Start()

	var ran int32
	ids := []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8"}
	for _, id := range ids {
		p.Submit(&scoreJob{id: id, counter: &ran})
	}
	results := p.Wait()

	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}
	if atomic.LoadInt32(&ran) != int32(len(ids)) {
		t.Errorf("expected %d executions, got %d", len(ids), ran)
	}

	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.(*scoreResult).id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("missing result for %s", id)
		}
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 4
	p := NewPool(context.Background(), workers)
	p.Start()

	var (
		mu      sync.Mutex
		active  int
		peak    int
		settled int32
	)
	enter := func() {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
	}
	leave := func() {
		mu.Lock()
		active--
		mu.Unlock()
		atomic.AddInt32(&settled, 1)
	}

	const total = 24
	for i := 0; i < total; i++ {
		p.Submit(&scoreJob{delay: 5 * time.Millisecond, before: enter, after: leave})
	}
	p.Wait()

	if atomic.LoadInt32(&settled) != total {
		t.Errorf("expected %d settled jobs, got %d", total, settled)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", peak, workers)
	}
	if peak < 1 {
		t.Errorf("no job observed running")
	}
}

func TestPool_FailedJobsReportErrors(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()

	p.Submit(&scoreJob{id: "ok-1"})
	p.Submit(&scoreJob{id: "bad", fail: true})
	p.Submit(&scoreJob{id: "ok-2"})

	results := p.Wait()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	var failed []string
	for _, r := range results {
		if errors.Is(r.GetError(), errScoring) {
			failed = append(failed, r.(*scoreResult).id)
		}
	}
	if len(failed) != 1 || failed[0] != "bad" {
		t.Errorf("expected only bad to fail, got %v", failed)
	}
}

func TestPool_SingleWorkerLargeBacklog(t *testing.T) {
	p := NewPool(context.Background(), 1)
	p.Start()

	done := make(chan int)
	go func() {
		for i := 0; i < 150; i++ {
			p.Submit(&scoreJob{})
		}
		done <- len(p.Wait())
	}()

	select {
	case n := <-done:
		if n != 150 {
			t.Errorf("expected 150 results, got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool stalled with a backlog larger than its buffers")
	}
}

func TestPool_OnResultSeesEachResult(t *testing.T) {
	p := NewPool(context.Background(), 2)
	var (
		mu  sync.Mutex
		ids []string
	)
	p.OnResult(func(r Result) {
		mu.Lock()
		ids = append(ids, r.(*scoreResult).id)
		mu.Unlock()
	})
	p.Start()

	for _, id := range []string{"x", "y", "z", "w", "v"} {
		p.Submit(&scoreJob{id: id})
	}
	results := p.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(ids) != 5 {
		t.Fatalf("callback saw %d results, want 5", len(ids))
	}
	// Wait returns results in the same order the callback saw them.
	for i, r := range results {
		if r.(*scoreResult).id != ids[i] {
			t.Errorf("result %d: got %s, callback saw %s", i, r.(*scoreResult).id, ids[i])
		}
	}
}

func TestPool_ParentContextCancelStopsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 1)
	p.Start()

	p.Submit(&scoreJob{delay: 2 * time.Second})
	cancel()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait blocked after the parent context was cancelled")
	}
}

func TestPool_SubmitAfterShutdownReturns(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Start()
	p.Shutdown()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.Submit(&scoreJob{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Shutdown")
	}
}

func TestPool_ShutdownInterruptsRunningJob(t *testing.T) {
	p := NewPool(context.Background(), 1)
	p.Start()

	started := make(chan struct{})
	var once sync.Once
	p.Submit(&scoreJob{
		delay:  5 * time.Second,
		before: func() { once.Do(func() { close(started) }) },
	})
	<-started

	finished := make(chan struct{})
	go func() {
		p.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not interrupt the running job")
	}

	// results channel is closed once Shutdown returns
	drained := make(chan struct{})
	go func() {
		for range p.results {
		}
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("results channel left open after Shutdown")
	}
}
