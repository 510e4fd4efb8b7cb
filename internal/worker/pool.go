// Package worker runs independent jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Task is one unit of work. A returned error is logged and counted; it
// does not stop the other tasks.
type Task func(ctx context.Context) error

type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger

	// closeMu is held for reading across a send so Wait cannot close tasks
	// under a blocked Submit.
	closeMu sync.RWMutex
	closed  bool

	done   atomic.Int64
	failed atomic.Int64
}

// NewPool builds a pool bound to ctx. Cancelling ctx stops workers after
// their current task.
func NewPool(ctx context.Context, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		ctx:     poolCtx,
		cancel:  cancel,
		logger:  logger,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	p.logger.Debug("worker pool started", zap.Int("workers", p.workers))
}

// Submit blocks until a worker has room or the pool is cancelled.
func (p *Pool) Submit(task Task) error {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Wait stops intake, waits for queued tasks and reports how many ran and
// how many failed.
func (p *Pool) Wait() (done, failed int64) {
	p.closeMu.Lock()
	if !p.closed {
		close(p.tasks)
		p.closed = true
	}
	p.closeMu.Unlock()

	p.wg.Wait()
	p.cancel()
	return p.done.Load(), p.failed.Load()
}

// Shutdown drops queued tasks and waits for running ones.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Wait()
}

func (p *Pool) work(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		if p.ctx.Err() != nil {
			continue
		}
		if err := task(p.ctx); err != nil {
			p.failed.Add(1)
			p.logger.Warn("task failed", zap.Int("worker", id), zap.Error(err))
			continue
		}
		p.done.Add(1)
	}
}
