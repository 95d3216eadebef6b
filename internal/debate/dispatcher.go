package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultCallTimeout bounds a single dispatched call.
const DefaultCallTimeout = 120 * time.Second

// DefaultWorkers is the number of calls allowed in flight at once.
const DefaultWorkers = 5

// CallFunc produces text for a dispatched call. It should honor ctx.
type CallFunc func(ctx context.Context) (string, error)

// CallObserver is told how each dispatched call ended.
type CallObserver interface {
	ObserveCall(name, status string, elapsed time.Duration)
}

// Call outcomes reported to a CallObserver.
const (
	CallOK       = "ok"
	CallTimedOut = "timeout"
	CallFailed   = "error"
)

// Dispatcher runs calls with a timeout and a bound on concurrency. A call
// that times out or fails yields a fallback string instead of an error.
type Dispatcher struct {
	timeout  time.Duration
	sem      *semaphore.Weighted
	observer CallObserver
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCallTimeout sets the per-call timeout (default: 120s).
func WithCallTimeout(d time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if d > 0 {
			ds.timeout = d
		}
	}
}

// WithWorkers sets how many calls may run at once (default: 5).
func WithWorkers(n int) DispatcherOption {
	return func(ds *Dispatcher) {
		if n > 0 {
			ds.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithCallObserver registers an observer for call outcomes.
func WithCallObserver(o CallObserver) DispatcherOption {
	return func(ds *Dispatcher) {
		ds.observer = o
	}
}

// WithDispatcherLogger sets the logger (default: slog.Default()).
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(ds *Dispatcher) {
		if l != nil {
			ds.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		timeout: DefaultCallTimeout,
		sem:     semaphore.NewWeighted(DefaultWorkers),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call runs fn and returns its text. Waiting for a worker slot counts
// against the timeout. On timeout it returns "<name> (timed out)"; on
// error, "<name> (error: <msg>)".
func (d *Dispatcher) Call(ctx context.Context, name string, fn CallFunc) string {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return d.fallback(name, err, start)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer d.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := fn(ctx)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return d.fallback(name, r.err, start)
		}
		elapsed := time.Since(start)
		d.logger.Debug("dispatch_completed",
			slog.String("call", name),
			slog.Duration("elapsed", elapsed))
		d.observe(name, CallOK, elapsed)
		return r.text
	case <-ctx.Done():
		// The goroutine keeps its slot until fn returns.
		return d.fallback(name, ctx.Err(), start)
	}
}

func (d *Dispatcher) fallback(name string, err error, start time.Time) string {
	elapsed := time.Since(start)
	if errors.Is(err, context.DeadlineExceeded) {
		d.logger.Warn("dispatch_timed_out",
			slog.String("call", name),
			slog.Duration("timeout", d.timeout))
		d.observe(name, CallTimedOut, elapsed)
		return name + " (timed out)"
	}
	d.logger.Error("dispatch_failed",
		slog.String("call", name),
		slog.String("error", err.Error()))
	d.observe(name, CallFailed, elapsed)
	return fmt.Sprintf("%s (error: %s)", name, err.Error())
}

func (d *Dispatcher) observe(name, status string, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveCall(name, status, elapsed)
	}
}

// Timeout returns the per-call timeout.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}
