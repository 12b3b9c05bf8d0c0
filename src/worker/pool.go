package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screen-chat-llm/src/chat"
)

// ResultCallback is invoked on job completion from a worker goroutine.
// The event loop should pass a closure that posts back into the loop safely.
type ResultCallback func(reply string, err error)

// SendFunc performs the model round trip for one job.
type SendFunc func(ctx context.Context, history []chat.Message, onDelta func(string)) (string, error)

// Pool is a fixed-size send-worker pool with a 1-slot input queue
// (strict back-pressure: a second submission while one is queued is dropped).
type Pool struct {
	jobs chan job
	send SendFunc
	wg   sync.WaitGroup
}

type job struct {
	ctx     context.Context
	history []chat.Message
	onDelta func(string)
	cb      ResultCallback
}

// New creates a pool. Size defaults to NumCPU when size<=0.
func New(size int, send SendFunc) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), send: send}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("worker: sending conversation of %d messages", len(j.history))
				reply, err := p.sendWithContext(j)
				log.Printf("worker: send complete, reply length=%d, err=%v", len(reply), err)
				j.cb(reply, err)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, history []chat.Message, onDelta func(string), cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, history: history, onDelta: onDelta, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// sendWithContext runs the send in a sub-goroutine and respects ctx.Done,
// letting the underlying request finish in the background on timeout.
func (p *Pool) sendWithContext(j job) (string, error) {
	if _, ok := j.ctx.Deadline(); !ok {
		return p.send(j.ctx, j.history, j.onDelta)
	}
	resCh := make(chan struct {
		reply string
		err   error
	}, 1)
	go func() {
		reply, err := p.send(j.ctx, j.history, j.onDelta)
		resCh <- struct {
			reply string
			err   error
		}{reply, err}
	}()
	select {
	case r := <-resCh:
		return r.reply, r.err
	case <-j.ctx.Done():
		return "", j.ctx.Err()
	}
}
