// Package strand provides a serial executor: a single goroutine draining a
// FIFO task queue. Everything posted to one strand runs in submission order
// with no interleaving, which is the only synchronization the world model
// needs.
package strand

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is posted to a closed strand.
var ErrClosed = errors.New("strand is closed")

const defaultQueueSize = 256

// Strand runs submitted functions one at a time in FIFO order.
type Strand struct {
	tasks chan func()
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New starts a strand with the default queue capacity.
func New() *Strand {
	s := &Strand{
		tasks: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Strand) run() {
	defer close(s.done)
	for fn := range s.tasks {
		fn()
	}
}

// Post enqueues fn without waiting for it to run.
func (s *Strand) Post(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.tasks <- fn
	return nil
}

// Do enqueues fn and waits until it has run. When ctx expires first, Do
// returns the context error; fn may still run later.
func (s *Strand) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if err := s.Post(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for already queued tasks to finish.
func (s *Strand) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	s.mu.Unlock()
	<-s.done
}
