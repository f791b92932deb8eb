package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/modguard/internal/model"
	"github.com/crimson-sun/modguard/internal/output"
)

const (
	defaultBufferSize   = 1024
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 1024.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the verdict) when
// the buffer is full, instead of blocking.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// WithDrainTimeout bounds how long Close waits for buffered verdicts.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// Async decouples classification from verdict delivery via a buffered
// channel. A background goroutine drains the channel to the wrapped output.
// Errors from the inner output go to errFunc rather than the caller.
type Async struct {
	inner        output.Output
	ch           chan model.Verdict
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	dropOnFull   bool
	drainTimeout time.Duration
	dropped      atomic.Int64
	closeOnce    sync.Once
}

// New wraps an output.Output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Verdict, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write sends the verdict into the channel. By default, blocks if the channel
// is full (backpressure). With WithDropOnFull, returns nil immediately and
// the verdict is counted in Dropped.
func (a *Async) Write(_ context.Context, v model.Verdict) error {
	if a.dropOnFull {
		select {
		case a.ch <- v:
		default:
			a.dropped.Add(1)
			slog.Warn("async output buffer full, dropping verdict", "id", v.ID)
		}
		return nil
	}
	a.ch <- v
	return nil
}

// Dropped returns how many verdicts were discarded because the buffer was full.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close closes the channel, waits for the drain goroutine to finish
// (with a timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async output drain timed out", "pending", len(a.ch))
		}
		err = a.inner.Close()
	})
	return err
}

// drain reads verdicts from the channel and writes them to the inner output.
func (a *Async) drain() {
	defer close(a.done)
	for v := range a.ch {
		if err := a.inner.Write(context.Background(), v); err != nil {
			a.errFunc(err)
		}
	}
}
