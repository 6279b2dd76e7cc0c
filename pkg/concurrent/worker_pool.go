package concurrent

import (
	"context"
	"sync"
)

type JobFunc[T any, G any] func(job T) G

// WorkerPool. fixed number of goroutines draining a buffered job queue into a results channel.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan T
	results    chan G
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan T, jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job)
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// Wait. blocks until every worker returned, then closes the results channel. call after Close.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job T) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan G {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

type indexed[T any] struct {
	i   int
	val T
}

/*
Map. applies fn to every job on numWorkers goroutines and returns the results in job order.
jobs not yet started when ctx is done are not run; their result is the zero value of G and
ctx.Err() is returned.
*/
func Map[T any, G any](ctx context.Context, numWorkers int, jobs []T, fn func(ctx context.Context, job T) G) ([]G, error) {
	out := make([]G, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}

	wp := NewWorkerPool[indexed[T], indexed[G]](min(numWorkers, len(jobs)), len(jobs))
	wp.Start(func(job indexed[T]) indexed[G] {
		var res G
		if ctx.Err() == nil {
			res = fn(ctx, job.val)
		}
		return indexed[G]{i: job.i, val: res}
	})

	for i, job := range jobs {
		wp.AddJob(indexed[T]{i: i, val: job})
	}
	wp.Close()
	wp.Wait()

	for res := range wp.CollectResults() {
		out[res.i] = res.val
	}
	return out, ctx.Err()
}
