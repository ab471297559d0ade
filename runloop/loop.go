// Package runloop provides a single-goroutine task loop used to serialize
// pipeline orchestration.
//
// Every task posted to a Loop runs on the same goroutine, in posting order.
// Code that confines its state to a Loop needs no further synchronization:
// completion callbacks, chain edits, and deferred notifications all execute
// one after another, never concurrently.
package runloop

import "sync"

// Loop is a FIFO task queue drained by a single dedicated goroutine.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// New creates a Loop and starts its goroutine.
func New() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post enqueues fn to run on the loop goroutine after all previously posted
// tasks. Posting from within a task is allowed; the new task runs after the
// current call stack unwinds, which is the "next tick" contract deferred
// notifications rely on. Post after Close drops the task and returns false.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Invoke runs fn on the loop goroutine and blocks until it returns.
// It must not be called from a task already running on the loop, as that
// would deadlock waiting on the loop itself. If the loop is closed, fn is
// not run and Invoke returns false.
func (l *Loop) Invoke(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	<-ran
	return true
}

// Close drains the tasks queued so far (tasks they post are dropped) and
// stops the loop goroutine. It blocks until the goroutine exits.
// Close is idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.cond.Signal()
	l.mu.Unlock()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
