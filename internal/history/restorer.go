package history

import (
	"errors"
	"log"
	"sync"
)

// ErrRestorerClosed is returned by Enqueue after Close.
var ErrRestorerClosed = errors.New("restorer closed")

// Restorer applies restore requests one at a time on its own goroutine, in
// the order they were enqueued.
type Restorer[S any] struct {
	apply func(S) error

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []S
	busy   bool
	closed bool
	errs   []error
	done   chan struct{}
}

// NewRestorer starts a worker that calls apply for every enqueued entry.
func NewRestorer[S any](apply func(S) error) *Restorer[S] {
	r := &Restorer[S]{apply: apply, done: make(chan struct{})}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

func (r *Restorer[S]) run() {
	defer close(r.done)
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closed {
			r.cond.Wait()
		}
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return
		}
		v := r.queue[0]
		var zero S
		r.queue[0] = zero
		r.queue = r.queue[1:]
		r.busy = true
		r.mu.Unlock()

		err := r.apply(v)

		r.mu.Lock()
		r.busy = false
		if err != nil {
			log.Printf("restore: %v", err)
			r.errs = append(r.errs, err)
		}
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}

// Enqueue schedules v to be applied after every earlier request.
func (r *Restorer[S]) Enqueue(v S) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRestorerClosed
	}
	r.queue = append(r.queue, v)
	r.cond.Broadcast()
	return nil
}

// Pending reports how many requests have not finished yet.
func (r *Restorer[S]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.queue)
	if r.busy {
		n++
	}
	return n
}

// Wait blocks until every enqueued request has been applied and returns the
// errors collected since the previous Wait.
func (r *Restorer[S]) Wait() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.queue) > 0 || r.busy {
		r.cond.Wait()
	}
	err := errors.Join(r.errs...)
	r.errs = nil
	return err
}

// Close applies any queued requests and stops the worker.
func (r *Restorer[S]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
	<-r.done
}
