// Package async decouples a backend from the timed call. Writes are queued in a bounded buffer and
// performed by a background worker, so a slow or blocking backend never delays the caller.
//
// A full queue drops the metric rather than waiting; the drop is returned as ErrQueueFull so the
// dispatcher reports it, and is counted.
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/log"
)

// DefaultQueueSize is the queue capacity used when none is given.
const DefaultQueueSize = 128

var (
	// ErrQueueFull is returned for a metric dropped because the queue had no room.
	ErrQueueFull = errors.New("async: queue full, metric dropped")

	// ErrClosed is returned for a metric written after Close.
	ErrClosed = errors.New("async: backend closed")
)

type job struct {
	ctx    context.Context
	name   string
	fields te.Fields
}

// Backend queues writes for a wrapped backend.
type Backend struct {
	next    te.Backend
	logger  log.Logger
	queue   chan job
	done    chan struct{}
	dropped atomic.Uint64
	closed  bool
	mutex   sync.RWMutex
}

// New wraps next and starts the worker. Failures of the wrapped backend are logged through logger,
// as they happen after the dispatcher has moved on.
func New(next te.Backend, size int, logger log.Logger) *Backend {
	if size <= 0 {
		size = DefaultQueueSize
	}

	b := &Backend{
		next:   next,
		logger: logger,
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
	go b.work()

	return b
}

// Write enqueues the metric without blocking.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- job{ctx: context.WithoutCancel(ctx), name: name, fields: fields}:
		return nil
	default:
		b.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped returns the number of metrics dropped because the queue was full.
func (b *Backend) Dropped() uint64 {
	return b.dropped.Load()
}

// Pending returns the number of queued metrics not yet handed to the wrapped backend.
func (b *Backend) Pending() int {
	return len(b.queue)
}

// Close stops accepting metrics and waits for the queued ones to be written, or for ctx to be
// done. It is safe to call more than once.
func (b *Backend) Close(ctx context.Context) error {
	b.mutex.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mutex.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("async: queue not drained: pending=%d err=%w", b.Pending(), ctx.Err())
	}
}

func (b *Backend) String() string {
	if named, ok := b.next.(fmt.Stringer); ok {
		return "async(" + named.String() + ")"
	}

	return fmt.Sprintf("async(%T)", b.next)
}

// work drains the queue until it is closed.
func (b *Backend) work() {
	defer close(b.done)

	for j := range b.queue {
		if err := b.write(j); err != nil {
			b.logger.Error("async: error writing metric: backend=%s metric=%s err=%v", b, j.name, err)
		}
	}
}

// write hands a queued metric to the wrapped backend, recovering from panics.
func (b *Backend) write(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &te.PanicError{Value: r}
		}
	}()

	return b.next.Write(j.ctx, j.name, j.fields)
}
