package workbench

import (
	"context"
	"errors"
	"sync"

	"github.com/danmuck/ndefsync/internal/logs"
)

var ErrDispatcherStopped = errors.New("workbench: dispatcher stopped")

// Dispatcher is the editing goroutine. Submit never blocks the caller;
// queued funcs run one at a time in submission order.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopc   chan struct{}
	stopped bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{wake: make(chan struct{}, 1), stopc: make(chan struct{})}
}

func (d *Dispatcher) Submit(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the editing goroutine and waits for it.
func (d *Dispatcher) Call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return ErrDispatcherStopped
	}
	d.Submit(func() { done <- fn() })
	select {
	case err := <-done:
		return err
	case <-d.stopc:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is done. Pending work is dropped on exit.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer func() {
		d.mu.Lock()
		if !d.stopped {
			d.stopped = true
			close(d.stopc)
		}
		d.queue = nil
		d.mu.Unlock()
	}()
	for {
		for {
			fn, ok := d.next()
			if !ok {
				break
			}
			fn()
		}
		select {
		case <-ctx.Done():
			logs.Debugf("workbench.Dispatcher.Run shutdown")
			return nil
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) next() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn, true
}
