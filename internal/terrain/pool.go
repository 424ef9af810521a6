package terrain

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned for jobs submitted after Shutdown.
var ErrPoolClosed = errors.New("terrain: pool shut down")

// Job is a terrain generation request.
type Job struct {
	Index   int
	Options Options
	// ResultChan receives the result when done
	ResultChan chan<- Result
}

// Result is a generated terrain and the mesh data still to be uploaded.
type Result struct {
	Index   int
	Terrain *Terrain
	Mesh    MeshData
	Err     error
}

// WorkerPool generates height grids and meshes on background goroutines.
// Uploading stays with the caller, which owns the GL context.
type WorkerPool struct {
	jobQueue chan Job
	workers  int
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWorkerPool starts workers goroutines with a queue of queueSize jobs.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobQueue: make(chan Job, queueSize),
		workers:  max(workers, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	for range pool.workers {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

// Submit queues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	default:
	}
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			t, data, err := Generate(job.Options)
			select {
			case job.ResultChan <- Result{Index: job.Index, Terrain: t, Mesh: data, Err: err}:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers. Queued jobs are dropped.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobQueue)
}

// GenerateAll generates every terrain in opts on the pool and returns the
// results in input order. The first error wins.
func (p *WorkerPool) GenerateAll(ctx context.Context, opts []Options) ([]Result, error) {
	results := make(chan Result, len(opts))
	go func() {
		for i, o := range opts {
			if err := p.Submit(Job{Index: i, Options: o, ResultChan: results}); err != nil {
				results <- Result{Index: i, Err: err}
			}
		}
	}()

	out := make([]Result, len(opts))
	var errs []error
	for range opts {
		select {
		case r := <-results:
			out[r.Index] = r
			if r.Err != nil {
				errs = append(errs, r.Err)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return out, nil
}
