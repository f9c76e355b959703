// Package worker runs file conversion jobs pulled from a queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/pkg/logger"
	"github.com/okian/root2hdf5/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job abstracts what workers read off the queue.
type Job = model.FileJob

// Processor converts one job into a result. Failures are carried in the result.
type Processor interface {
	Process(ctx context.Context, job Job) model.FileResult
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until the queue drains or ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	jobs      <-chan Job
	processor Processor
	results   chan<- model.FileResult
	active    *atomic.Int64
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from jobs and publishing to results.
func NewInMemoryWorker(jobs <-chan Job, processor Processor, results chan<- model.FileResult, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		jobs:      jobs,
		processor: processor,
		results:   results,
		active:    new(atomic.Int64),
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.handle(ctx, job)
		}
	}
}

func (w *InMemoryWorker) handle(ctx context.Context, job Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
	}()

	w.logger.Debug(ctx, "converting file",
		logger.Int("index", job.Index),
		logger.String("input", job.InputPath),
	)

	res := w.processor.Process(ctx, job)

	select {
	case w.results <- res:
		return
	default:
	}
	select {
	case w.results <- res:
	case <-ctx.Done():
		w.logger.Warn(ctx, "dropping result after cancel", logger.String("input", job.InputPath))
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages multiple workers sharing one job stream and one result stream.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	results chan model.FileResult
	active  atomic.Int64
	size    int
	buffer  int

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. workerCount below 1 is treated as 1.
func NewPool(workerCount int, queue Queue, processor Processor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Pool{
		queue: queue,
		size:  workerCount,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	p.results = make(chan model.FileResult, p.buffer)
	p.buildWorkers(processor)

	metrics.UpdateWorkerActiveCount(0)

	return p
}

func (p *Pool) buildWorkers(processor Processor) {
	p.workers = make([]*InMemoryWorker, p.size)
	for i := range p.workers {
		name := "worker-" + strconv.Itoa(i)
		w := NewInMemoryWorker(nil, processor, p.results, WithName(name), WithLogger(p.logger.Named(name)))
		w.active = &p.active
		p.workers[i] = w
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Results returns the result stream. It is closed after every worker exits.
func (p *Pool) Results() <-chan model.FileResult { return p.results }

// Start starts all workers in the pool. Calling it again is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started.Store(true)
		jobs := p.queue.Dequeue(ctx)
		var wg sync.WaitGroup
		for _, w := range p.workers {
			w.jobs = jobs
			wg.Add(1)
			go func(w *InMemoryWorker) {
				defer wg.Done()
				w.Run(ctx)
			}(w)
		}
		go func() {
			wg.Wait()
			close(p.results)
			close(p.done)
		}()
		p.logger.Debug(ctx, "worker pool started", logger.Int("workers", p.size))
	})
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	<-p.done
}

// Shutdown stops the workers after their current jobs.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return err
		}
	}
	return nil
}
