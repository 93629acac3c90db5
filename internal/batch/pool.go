// Package batch fans the counting pipeline over many images. Each
// invocation owns its inputs outright, so the only coordination
// needed lives in this worker pool.
package batch

import (
	"runtime"
	"sync"
)

// Pool runs submitted jobs on a fixed set of workers.
type Pool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start launches the workers. Safe to call more than once.
func (p *Pool) Start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			go p.worker()
		}
	})
}

func (p *Pool) worker() {
	for job := range p.jobQueue {
		job()
		p.wg.Done()
	}
}

// Submit queues a job. Blocks when the queue is full.
func (p *Pool) Submit(job func()) {
	p.wg.Add(1)
	p.jobQueue <- job
}

// Wait blocks until every submitted job has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once queued jobs drain. No Submit may
// follow.
func (p *Pool) Close() {
	close(p.jobQueue)
}
