package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool closed")
)

/*
Pool. bounded goroutine pool for short tasks (websocket reads).
at most size goroutines run at once; a spawned goroutine stays alive and keeps taking
tasks from the queue until the pool is closed.
ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
*/
type Pool struct {
	sem  chan struct{}
	work chan func()
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewPool(size, queue int) *Pool {
	if size < 1 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &Pool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		quit: make(chan struct{}),
	}
}

// Spawn. starts n idle workers up front.
func (p *Pool) Spawn(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.sem <- struct{}{}:
			p.wg.Add(1)
			go p.worker(nil)
		default:
			return
		}
	}
}

// Schedule. blocks until the task is queued or taken by a worker.
func (p *Pool) Schedule(task func()) error {
	return p.schedule(task, nil)
}

func (p *Pool) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return p.schedule(task, t.C)
}

func (p *Pool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.quit:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		p.wg.Add(1)
		go p.worker(task)
		return nil
	}
}

func (p *Pool) worker(task func()) {
	defer func() {
		<-p.sem
		p.wg.Done()
	}()

	if task != nil {
		task()
	}
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.work:
			task()
		}
	}
}

// Close. stops every worker after its current task. queued tasks that were not picked up are dropped.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
