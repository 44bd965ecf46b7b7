// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"sync"
	"time"
)

// Stats is a consistent view of queue accounting.
// Put == Resolved + Queued + InFlight holds for every snapshot.
type Stats struct {
	Put      int
	Resolved int
	Queued   int
	InFlight int
	Capacity int
}

// Queue is a bounded multi-producer multi-consumer FIFO.
//
// Put blocks while the queue is full, which is how slow consumers push
// back on producers. Every item handed out by Get must be acknowledged
// with TaskDone; Join waits until all acknowledged.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	drained  *sync.Cond

	buf  []T
	head int
	size int

	put      int
	resolved int
	inFlight int
	closed   bool
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)
	return q, nil
}

// Put appends item, blocking while the queue is at capacity.
// Returns ErrClosed once Close has been called, or ctx.Err() if ctx ends first.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notFull.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == len(q.buf) && !q.closed && ctx.Err() == nil {
		q.notFull.Wait()
	}
	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.buf[(q.head+q.size)%len(q.buf)] = item
	q.size++
	q.put++
	q.notEmpty.Signal()
	return nil
}

// Get removes the oldest item, waiting up to timeout for one to arrive.
// ok is false on timeout, or immediately once the queue is closed and empty.
// A non-positive timeout polls without waiting.
func (q *Queue[T]) Get(timeout time.Duration) (item T, ok bool) {
	deadline := time.Now().Add(timeout)
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			q.mu.Lock()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		defer timer.Stop()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 && !q.closed && time.Now().Before(deadline) {
		q.notEmpty.Wait()
	}
	if q.size == 0 {
		return item, false
	}

	var zero T
	item = q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.inFlight++
	q.notFull.Signal()
	return item, true
}

// TaskDone marks one item returned by Get as resolved.
func (q *Queue[T]) TaskDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inFlight == 0 {
		return ErrTaskDoneUnderflow
	}
	q.inFlight--
	q.resolved++
	if q.size == 0 && q.inFlight == 0 {
		q.drained.Broadcast()
	}
	return nil
}

// Join blocks until every item ever put has been resolved, or ctx ends.
func (q *Queue[T]) Join(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.drained.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for (q.size > 0 || q.inFlight > 0) && ctx.Err() == nil {
		q.drained.Wait()
	}
	if q.size > 0 || q.inFlight > 0 {
		return ctx.Err()
	}
	return nil
}

// Close rejects further puts. Items already queued can still be taken.
// Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of queued, not yet taken, items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Stats returns the queue accounting taken under a single lock.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Put:      q.put,
		Resolved: q.resolved,
		Queued:   q.size,
		InFlight: q.inFlight,
		Capacity: len(q.buf),
	}
}
