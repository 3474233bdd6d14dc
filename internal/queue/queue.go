// Package queue implements the in-process processing queue: pending jobs
// ordered by priority tier, drained one at a time by a single worker.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/model"
)

// ErrClosed is returned by Enqueue after the queue has been stopped.
var ErrClosed = errors.New("queue is closed")

// runner executes the pipeline for one job. Implemented by the editor
// service, which resolves the source image and records the outcome.
type runner interface {
	Run(ctx context.Context, job model.Job, progress func(float64)) (*model.Result, error)
}

// Callbacks holds the optional per-job notifications. Nil fields are skipped.
type Callbacks struct {
	OnStart    func(id uuid.UUID)
	OnProgress func(id uuid.UUID, fraction float64)
	OnComplete func(id uuid.UUID, res *model.Result)
	OnError    func(id uuid.UUID, err error)
}

type item struct {
	job model.Job
	cb  Callbacks
}

// Queue holds pending jobs in priority order. Insertion: high priority at
// the front, low at the back, normal before any trailing low-priority jobs.
// Jobs are processed strictly one at a time by the Run loop.
type Queue struct {
	mu     sync.Mutex
	items  []item
	closed bool
	wake   chan struct{}
	runner runner
}

// New creates a Queue draining into the given runner.
func New(r runner) *Queue {
	return &Queue{
		runner: r,
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue inserts a job according to its priority tier and wakes the worker.
func (q *Queue) Enqueue(job model.Job, cb Callbacks) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}

	q.insert(item{job: job, cb: cb})
	q.mu.Unlock()

	// Non-blocking: a pending wakeup already covers this job.
	select {
	case q.wake <- struct{}{}:
	default:
	}

	return nil
}

// insert places it at the position its priority dictates. Caller holds q.mu.
func (q *Queue) insert(it item) {
	switch it.job.Priority {
	case model.PriorityHigh:
		q.items = append([]item{it}, q.items...)
	case model.PriorityLow:
		q.items = append(q.items, it)
	default:
		// Normal goes before the trailing run of low-priority jobs.
		pos := len(q.items)
		for pos > 0 && q.items[pos-1].job.Priority == model.PriorityLow {
			pos--
		}
		q.items = append(q.items, item{})
		copy(q.items[pos+1:], q.items[pos:])
		q.items[pos] = it
	}
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the ids of pending jobs in processing order.
func (q *Queue) Pending() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]uuid.UUID, len(q.items))
	for i, it := range q.items {
		ids[i] = it.job.ID
	}

	return ids
}

// pop removes and returns the head of the queue.
func (q *Queue) pop() (item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return item{}, false
	}

	it := q.items[0]
	q.items = q.items[1:]

	return it, true
}

// Run drains the queue one job at a time until the context is canceled.
// It stops accepting jobs on shutdown; jobs still pending are dropped, their
// OnError callback fired with the context error.
func (q *Queue) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().Msg("starting processing queue worker")

	for {
		it, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				q.shutdown(ctx.Err())
				return
			case <-q.wake:
				continue
			}
		}

		select {
		case <-ctx.Done():
			q.failItem(it, ctx.Err())
			q.shutdown(ctx.Err())
			return
		default:
		}

		q.process(ctx, it)
	}
}

// process runs one job through the runner and fires its callbacks.
func (q *Queue) process(ctx context.Context, it item) {
	if it.cb.OnStart != nil {
		it.cb.OnStart(it.job.ID)
	}

	progress := func(fraction float64) {
		if it.cb.OnProgress != nil {
			it.cb.OnProgress(it.job.ID, fraction)
		}
	}

	res, err := q.runner.Run(ctx, it.job, progress)
	if err != nil {
		zlog.Logger.Err(err).
			Str("job_id", it.job.ID.String()).
			Msg("job failed")

		if it.cb.OnError != nil {
			it.cb.OnError(it.job.ID, err)
		}
		return
	}

	zlog.Logger.Info().
		Str("job_id", it.job.ID.String()).
		Int64("elapsed_ms", res.ElapsedMS).
		Msg("job completed")

	if it.cb.OnComplete != nil {
		it.cb.OnComplete(it.job.ID, res)
	}
}

// shutdown closes the queue and fails everything still pending.
func (q *Queue) shutdown(cause error) {
	q.mu.Lock()
	remaining := q.items
	q.items = nil
	q.closed = true
	q.mu.Unlock()

	for _, it := range remaining {
		q.failItem(it, cause)
	}

	zlog.Logger.Info().Int("dropped", len(remaining)).Msg("processing queue stopped")
}

func (q *Queue) failItem(it item, cause error) {
	if it.cb.OnError != nil {
		it.cb.OnError(it.job.ID, cause)
	}
}
