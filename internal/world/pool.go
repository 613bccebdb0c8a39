package world

import (
	"context"
	"sync"
)

// BuildJob asks for one replacement chunk of a streaming wave.
type BuildJob struct {
	Wave             int
	Dir              Direction
	Lane             int
	OriginX, OriginZ float64
}

// BuildResult carries a finished chunk back to the grid.
type BuildResult struct {
	Job   BuildJob
	Chunk *Chunk
}

// WorkerPool manages the goroutines that build chunks.
type WorkerPool struct {
	jobQueue chan BuildJob
	results  chan BuildResult
	workers  int
	build    func(BuildJob) *Chunk
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWorkerPool starts workers goroutines. Both queues hold queueSize entries.
func NewWorkerPool(workers, queueSize int, build func(BuildJob) *Chunk) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		jobQueue: make(chan BuildJob, queueSize),
		results:  make(chan BuildResult, queueSize),
		workers:  max(workers, 1),
		build:    build,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := range pool.workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}

	return pool
}

// SubmitJobBlocking waits for queue space or pool shutdown.
func (p *WorkerPool) SubmitJobBlocking(job BuildJob) {
	select {
	case p.jobQueue <- job:
	case <-p.ctx.Done():
	}
}

// Results delivers finished chunks in completion order.
func (p *WorkerPool) Results() <-chan BuildResult {
	return p.results
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := BuildResult{Job: job, Chunk: p.build(job)}

			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown cancels outstanding work and waits for every worker to exit.
// Jobs must not be submitted afterwards.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}
