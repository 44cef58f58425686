// Copyright 2026 The Prolite Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

// FIFO represents a simple FIFO queue.
type FIFO[T any] struct {
	front *queueNode[T]
	back  *queueNode[T]
	size  int
}

type queueNode[T any] struct {
	v    T
	next *queueNode[T]
}

// NewFIFO returns a new FIFO queue containing elements ts starting with the
// left-most argument at the front.
func NewFIFO[T any](ts ...T) *FIFO[T] {
	q := &FIFO[T]{}
	for _, t := range ts {
		q.Push(t)
	}
	return q
}

// Push adds t to the back of the queue.
func (q *FIFO[T]) Push(t T) {
	node := &queueNode[T]{v: t}
	if q.back == nil {
		q.front = node
	} else {
		q.back.next = node
	}
	q.back = node
	q.size++
}

// Pop removes and returns the front element. The second return value is
// false if the queue is empty.
func (q *FIFO[T]) Pop() (T, bool) {
	if q.front == nil {
		var zero T
		return zero, false
	}
	node := q.front
	q.front = node.next
	if q.front == nil {
		q.back = nil
	}
	q.size--
	return node.v, true
}

// Len returns the number of queued elements.
func (q *FIFO[T]) Len() int {
	return q.size
}
