package runpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	perr "alertctl/internal/platform/errors"
)

func TestSubmit_ReturnsResult(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t1", Workers: 2, Queue: 4})
	defer p.Close()

	h, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := h.Wait()
	if err != nil || got != 42 {
		t.Fatalf("got %d err %v", got, err)
	}
	// cancelling a finished handle is harmless
	h.Cancel()
	h.Cancel()
}

func TestSubmit_PropagatesError(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t2", Workers: 1, Queue: 1})
	defer p.Close()

	boom := errors.New("boom")
	h, _ := Submit(p, context.Background(), time.Second, func(context.Context) (string, error) {
		return "", boom
	})
	if _, err := h.Wait(); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestWait_TimeoutCancelsAndFreesWorker(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t3", Workers: 1, Queue: 1})
	defer p.Close()

	var observed atomic.Bool
	h, err := Submit(p, context.Background(), 50*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		observed.Store(true)
		return 0, ctx.Err()
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	start := time.Now()
	_, err = h.Wait()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if el := time.Since(start); el > time.Second {
		t.Fatalf("timeout took too long: %v", el)
	}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("task did not observe cancellation")
	}
	if !observed.Load() {
		t.Fatalf("task should have seen ctx.Done")
	}

	// the single worker is free again
	h2, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 7, nil })
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if v, err := h2.Wait(); err != nil || v != 7 {
		t.Fatalf("second task got %d %v", v, err)
	}
}

func TestWait_SlowTaskDoesNotStarveOtherDeadlines(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t4", Workers: 2, Queue: 2})
	defer p.Close()

	slow, _ := Submit(p, context.Background(), time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	fast, _ := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 1, nil })

	if v, err := fast.Wait(); err != nil || v != 1 {
		t.Fatalf("fast task got %d %v", v, err)
	}
	slow.Cancel()
	if _, err := slow.Wait(); err == nil {
		t.Fatalf("cancelled task should report an error")
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t5", Workers: 1, Queue: 1})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	block := func(context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	}
	h1, err := Submit(p, context.Background(), time.Second, block)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	<-started

	h2, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 2, nil })
	if err != nil {
		t.Fatalf("second submit should queue: %v", err)
	}

	if _, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 3, nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}

	close(release)
	if _, err := h1.Wait(); err != nil {
		t.Fatalf("h1: %v", err)
	}
	if v, err := h2.Wait(); err != nil || v != 2 {
		t.Fatalf("h2 got %d %v", v, err)
	}
}

func TestSubmit_SkipsCancelledQueuedWork(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t6", Workers: 1, Queue: 1})
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	h1, _ := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	})
	<-started

	var ran atomic.Bool
	h2, _ := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) {
		ran.Store(true)
		return 0, nil
	})
	h2.Cancel()
	close(release)
	_, _ = h1.Wait()

	<-h2.Done()
	if ran.Load() {
		t.Fatalf("cancelled queued work must not run")
	}
}

func TestSubmit_ParentCancellation(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t7", Workers: 1})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var h *Handle[int]
	var err error
	// hand-off queue: retry until the idle worker is receiving
	for i := 0; i < 100; i++ {
		h, err = Submit(p, ctx, time.Minute, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	cancel()
	if _, err := h.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestSubmit_PanicBecomesError(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t8", Workers: 1, Queue: 1})
	defer p.Close()

	h, _ := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) {
		panic("kaboom")
	})
	_, err := h.Wait()
	if !perr.IsCode(err, perr.ErrorCodePanic) {
		t.Fatalf("want panic error, got %v", err)
	}
}

func TestClose_RejectsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t9", Workers: 3, Queue: 8})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		h, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 1, nil })
		if err != nil {
			continue
		}
		wg.Add(1)
		go func() { defer wg.Done(); _, _ = h.Wait() }()
	}
	wg.Wait()

	p.Close()
	p.Close()
	if _, err := Submit(p, context.Background(), time.Second, func(context.Context) (int, error) { return 1, nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestHandle_Deadline(t *testing.T) {
	t.Parallel()

	p := New(Options{Name: "t10", Workers: 1, Queue: 1})
	defer p.Close()

	before := time.Now()
	h, _ := Submit(p, context.Background(), 2*time.Second, func(context.Context) (int, error) { return 0, nil })
	_, _ = h.Wait()
	if d := h.Deadline(); d.Before(before.Add(2*time.Second)) || d.After(time.Now().Add(2*time.Second)) {
		t.Fatalf("deadline %v out of range", d)
	}
}
