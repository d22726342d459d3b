// Package executor implements the priority work queue feeding a fixed
// thread pool described by spec.md §4.1, ported from
// original_source/src/database.rs's Executor/Promise/Job and restyled after
// the worker-goroutine bookkeeping in the pack's
// nooga-paserati/pkg/modules/worker_pool.go (atomic start/stop flags,
// sync.WaitGroup-joined workers).
package executor

import (
	"container/heap"
	"sync"
)

// job is one queued unit of work, ordered by its caller-supplied estimate.
// Ties are broken arbitrarily, as spec.md §4.1 allows.
type job struct {
	estimate int
	run      func()
}

// jobHeap is a max-heap of jobs keyed by estimate.
type jobHeap []job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].estimate > h[j].estimate }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(job)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Executor runs submitted closures on a fixed-size pool of worker goroutines,
// dispatching in descending order of a caller-supplied cost estimate. With
// concurrency <= 1, Exec runs its task synchronously on the caller instead
// of spawning any goroutine, matching spec.md §4.1.
type Executor struct {
	concurrency int
	mu          sync.Mutex
	cond        *sync.Cond
	heap        jobHeap
	closed      bool
	wg          sync.WaitGroup
}

// New creates an Executor. If concurrency <= 1, New spawns no goroutines and
// every Exec call runs synchronously on the submitter.
func New(concurrency int) *Executor {
	e := &Executor{concurrency: concurrency}
	e.cond = sync.NewCond(&e.mu)
	if concurrency > 1 {
		e.wg.Add(concurrency)
		for i := 0; i < concurrency; i++ {
			go e.workerLoop()
		}
	}
	return e
}

func (e *Executor) workerLoop() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for len(e.heap) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.heap) == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		j := heap.Pop(&e.heap).(job)
		e.mu.Unlock()
		j.run()
	}
}

// Close marks the pool closed and wakes every worker; each worker keeps
// running queued jobs until the queue is empty and then exits. Close does
// not cancel queued or in-flight jobs, and it returns only after every
// worker has exited. Used by the CLI's watch mode and by leak-checked tests.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
}

// Exec enqueues task with the given priority estimate and returns a Promise
// fulfilled when the worker finishes. Higher estimates are dispatched first.
func Exec[R any](e *Executor, estimate int, task func() R) *Promise[R] {
	result := make(chan promiseResult[R], 1)

	run := func() {
		r, recovered := callRecovering(task)
		result <- promiseResult[R]{value: r, panicVal: recovered}
	}

	if e == nil || e.concurrency <= 1 {
		run()
	} else {
		e.mu.Lock()
		heap.Push(&e.heap, job{estimate: estimate, run: run})
		e.mu.Unlock()
		e.cond.Signal()
	}

	return &Promise[R]{wait: func() R {
		r := <-result
		if r.panicVal != nil {
			panic(r.panicVal)
		}
		return r.value
	}}
}

func callRecovering[R any](task func() R) (result R, recovered interface{}) {
	defer func() {
		recovered = recover()
	}()
	result = task()
	return
}

type promiseResult[R any] struct {
	value    R
	panicVal interface{}
}

// Promise is a handle for a value that will be available later. It has a
// single consumer: Wait drains it. Promises constructed via Exec parallelize
// across the pool; the others (NewValue, NewOnce, Map, Join) run their closures on
// the waiting goroutine and exist purely for interface consistency, per
// spec.md §4.1.
type Promise[T any] struct {
	once sync.Once
	val  T
	wait func() T
}

// Wait blocks until the backing task finishes and returns its result. If the
// task panicked, Wait re-panics with the recovered value.
func (p *Promise[T]) Wait() T {
	p.once.Do(func() {
		p.val = p.wait()
	})
	return p.val
}

// NewValue wraps a value that is already available.
func NewValue[T any](value T) *Promise[T] {
	return &Promise[T]{wait: func() T { return value }}
}

// NewOnce constructs a lazy, single-thread promise that invokes fn on the
// waiter's goroutine the first time Wait is called.
func NewOnce[T any](fn func() T) *Promise[T] {
	return &Promise[T]{wait: fn}
}

// Map attaches a transform that runs at Wait time, on the waiter's goroutine.
func Map[T, R any](p *Promise[T], f func(T) R) *Promise[R] {
	return NewOnce(func() R {
		return f(p.Wait())
	})
}

// Join waits on every promise in order and collects their results. Waiting
// is sequential, preserving input order, as spec.md §4.1 specifies.
func Join[T any](promises []*Promise[T]) *Promise[[]T] {
	return NewOnce(func() []T {
		out := make([]T, len(promises))
		for i, p := range promises {
			out[i] = p.Wait()
		}
		return out
	})
}
