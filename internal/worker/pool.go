// Package worker provides the bounded pool of goroutines (C4) that run
// session handlers. It is adapted from the teacher's internal/worker.go,
// fixed to actually bound concurrency to N workers and to block on
// queue-non-empty instead of busy-spinning.
package worker

import (
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Task is one unit of work submitted to the pool. A long-lived session
// occupies one worker for the connection's entire lifetime, per §4.4.
type Task func(t *tomb.Tomb)

// Pool is a fixed-size set of workers draining a single FIFO queue.
// Submit is non-blocking; once the pool is shutting down, submissions
// are silently discarded rather than blocking the caller.
type Pool struct {
	size  int
	tasks chan Task

	mu       sync.Mutex
	draining bool
}

// queueSize bounds how many accepted connections can wait for a free
// worker before Submit starts dropping them.
const queueSize = 256

// New returns a pool with size workers. Run must be called to start
// them.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		size:  size,
		tasks: make(chan Task, queueSize),
	}
}

// Run starts size workers under t, each blocking on the task queue until
// t is dying, at which point it drains whatever is already queued and
// exits.
func (p *Pool) Run(t *tomb.Tomb) {
	for i := 0; i < p.size; i++ {
		id := i
		t.Go(func() error {
			p.worker(t, id)
			return nil
		})
	}
	t.Go(func() error {
		<-t.Dying()
		p.mu.Lock()
		p.draining = true
		p.mu.Unlock()
		return nil
	})
}

func (p *Pool) worker(t *tomb.Tomb, id int) {
	for {
		select {
		case <-t.Dying():
			p.drain(t)
			return
		case task := <-p.tasks:
			task(t)
		}
	}
}

// drain runs whatever tasks are already queued before a worker exits, so
// no task accepted before shutdown is skipped. Each runs with a tomb that
// is already dying; a Session task started this way ends before reading.
func (p *Pool) drain(t *tomb.Tomb) {
	for {
		select {
		case task := <-p.tasks:
			task(t)
		default:
			return
		}
	}
}

// Submit enqueues task. If the pool is shutting down the task is
// silently discarded, per §4.4.
func (p *Pool) Submit(task Task) {
	p.mu.Lock()
	draining := p.draining
	p.mu.Unlock()
	if draining {
		return
	}
	select {
	case p.tasks <- task:
	default:
		log.Warn().Msg("worker pool queue full, dropping task")
	}
}
