// Package workerpool provides a bounded goroutine pool with backpressure.
//
// The asset jobs use it to fan object-store deletions out without letting a
// big batch (a product with dozens of images, a sweep over a neglected disk)
// spawn a goroutine per blob. When every worker is busy, Submit fails fast
// with ErrPoolFull so the caller can shed load; SubmitWait blocks instead:
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//
//	for _, ref := range refs {
//	    if err := pool.SubmitWait(func() { disk.Delete(ref) }); err != nil {
//	        return err // pool shut down underneath us
//	    }
//	}
package workerpool

import (
	"errors"
	"sync"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// buffer is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned by Submit and SubmitWait after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool runs tasks on a fixed set of worker goroutines.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

// New creates a Pool with size workers. The task buffer holds 2× size, so
// short bursts queue instead of failing. size values below 1 are clamped.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks: make(chan func(), size*2),
		done:  make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.drain()
	}

	return p
}

// Submit enqueues task without blocking. It returns ErrPoolFull when the
// buffer is at capacity and ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait enqueues task, blocking until a buffer slot frees up. It only
// fails with ErrPoolClosed when the pool shuts down while waiting.
func (p *Pool) SubmitWait(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks, runs everything already queued and waits
// for the workers to exit. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.done)
		close(p.tasks)
		p.wg.Wait()
	})
}

// drain works the task channel until Shutdown closes it.
func (p *Pool) drain() {
	defer p.wg.Done()
	for task := range p.tasks {
		run(task)
	}
}

// run executes task, swallowing panics so one bad task cannot take a worker
// down with it.
func run(task func()) {
	defer func() { recover() }() //nolint:errcheck
	task()
}
