package logger

import "sync"

// serialQueue is the ordered async writer behind every asynchronous
// endpoint: a single worker goroutine draining an unbounded FIFO of task
// closures. It is the only place that touches an endpoint's mutable
// state (open handle, rotation index, date key), which is what makes the
// endpoints lock-free: confinement to one goroutine replaces a mutex.
//
// Guarantees:
//   - submit never blocks the caller,
//   - tasks run one at a time, in submission order,
//   - a panicking task is absorbed and the worker keeps going,
//   - barrier returns once everything submitted before it has run.
type serialQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
	diag   *AppLogger
}

func newSerialQueue() *serialQueue {
	q := &serialQueue{
		done: make(chan struct{}),
		diag: GetAppLogger(),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// submit enqueues fn for execution on the queue's worker and returns
// immediately. It reports false when the queue is already closed and the
// task was dropped.
func (q *serialQueue) submit(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
	q.cond.Signal()
	return true
}

// barrier blocks until every task submitted before this call has run.
// Tasks submitted concurrently after the barrier began are not waited
// for. On a closed queue it returns immediately.
func (q *serialQueue) barrier() {
	reached := make(chan struct{})
	if !q.submit(func() { close(reached) }) {
		return
	}
	<-reached
}

// close drains all pending tasks, stops the worker and waits for it.
// Subsequent submits are dropped. Closing twice is harmless.
func (q *serialQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
	<-q.done
}

func (q *serialQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.runTask(fn)
	}
}

// runTask isolates one task so a panic cannot take the worker down with
// it; later tasks still run and the destination can recover.
func (q *serialQueue) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.diag.Error("log writer task panicked: %v", r)
		}
	}()
	fn()
}
