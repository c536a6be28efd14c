// Package runpool runs units of work on a fixed set of workers behind a bounded queue.
// Every submission gets a Handle carrying its own deadline and cancellation token
package runpool

import (
	"context"
	"errors"
	"sync"
	"time"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrQueueFull is returned by Submit when every worker is busy and the queue is at capacity
	ErrQueueFull = errors.New("runpool: queue full")
	// ErrClosed is returned by Submit after Close
	ErrClosed = errors.New("runpool: closed")
	// ErrTimeout is returned by Handle.Wait when the deadline passes first
	ErrTimeout = errors.New("runpool: deadline exceeded")
)

// Options configures a Pool
type Options struct {
	// Name labels metrics and logs, e.g. "preview"
	Name    string
	Workers int
	// Queue bounds submissions waiting for a worker. 0 means hand-off only
	Queue int

	Registry prometheus.Registerer
}

// Pool is a fixed-size worker pool. Safe for concurrent use
type Pool struct {
	name  string
	tasks chan func()

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	depth prometheus.Gauge
	log   *logger.Logger
}

// New starts o.Workers goroutines (at least one)
func New(o Options) *Pool {
	if o.Name == "" {
		o.Name = "pool"
	}
	p := &Pool{
		name:  o.Name,
		tasks: make(chan func(), max(0, o.Queue)),
		depth: metrics.With(o.Registry).NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: o.Name,
			Name:      "queue_depth",
			Help:      "Submissions waiting for a worker",
		}),
		log: logger.Named("runpool." + o.Name),
	}
	n := max(1, o.Workers)
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for run := range p.tasks {
		p.depth.Dec()
		run()
	}
}

// Close stops accepting work and waits for the workers to drain the queue.
// Queued work whose handle was already cancelled is skipped
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) enqueue(run func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.depth.Inc()
	select {
	case p.tasks <- run:
		return nil
	default:
		p.depth.Dec()
		return ErrQueueFull
	}
}

// Handle is a submitted unit of work
type Handle[T any] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	deadline time.Time
	done     chan struct{}

	val T
	err error
}

// Submit schedules fn with a deadline of now+timeout. fn receives the handle's context and
// must observe its cancellation to release the worker promptly. parent cancellation propagates
func Submit[T any](p *Pool, parent context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (*Handle[T], error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	dl, _ := ctx.Deadline()
	h := &Handle[T]{ctx: ctx, cancel: cancel, deadline: dl, done: make(chan struct{})}

	err := p.enqueue(func() {
		defer close(h.done)
		if err := ctx.Err(); err != nil {
			h.err = err
			return
		}
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Interface("panic", r).Msg("task panicked")
				h.err = perr.PanicErrf("task panicked: %v", r)
			}
		}()
		h.val, h.err = fn(ctx)
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

// Wait blocks until the work finishes or the deadline passes. On deadline the work is
// cancelled and ErrTimeout returned; on parent cancellation the parent's error is returned
func (h *Handle[T]) Wait() (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-h.ctx.Done():
	}
	// prefer a result that landed at the same instant
	select {
	case <-h.done:
		return h.val, h.err
	default:
	}
	h.cancel()
	var zero T
	if errors.Is(h.ctx.Err(), context.DeadlineExceeded) {
		return zero, ErrTimeout
	}
	return zero, h.ctx.Err()
}

// Cancel asks the work to stop. Idempotent, and a no-op once the work has finished
func (h *Handle[T]) Cancel() { h.cancel() }

// Done is closed once the work has returned or was skipped
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Deadline reports when Wait gives up
func (h *Handle[T]) Deadline() time.Time { return h.deadline }
