package webhook

import (
	"log"
	"sync"
)

// Pool runs delivery tasks on a fixed set of background workers so
// dispatch never adds network latency to the triggering request. The
// queue is bounded; when it is full the task is dropped with a log line
// rather than blocking the caller (delivery carries no guarantee).
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &Pool{tasks: make(chan func(), queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues a task. Returns false if the pool is stopped or the
// queue is full; the task is dropped in both cases.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		log.Printf("[Webhook] WARN: dispatch pool stopped, dropping task")
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		log.Printf("[Webhook] WARN: dispatch queue full, dropping task")
		return false
	}
}

// Stop drains queued tasks and waits for in-flight ones to finish.
// Tasks submitted after Stop are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
