// SPDX-License-Identifier: MIT
//
// Package buffer implements the bounded frame queue between the capture
// callback and the analysis goroutine. Push never blocks; when the ring
// is full the oldest frame is evicted, prioritizing recency over
// completeness, since stale audio is less useful than fresh audio for
// real-time visualization. Pop blocks until a frame arrives or the ring
// is closed.
package buffer

import (
	"sync"
	"sync/atomic"

	"pulseviz/internal/audio"
)

// Ring is a single-writer/single-reader bounded queue of frames.
// Capacity is fixed at construction to bound worst-case latency.
type Ring struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond

	frames []*audio.Frame
	head   int // index of oldest frame
	count  int
	closed bool

	drops atomic.Uint64
}

// NewRing creates a ring holding at most capacity frames. Capacity must
// be at least 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	r := &Ring{
		frames: make([]*audio.Frame, capacity),
	}
	r.nonEmpty = sync.NewCond(&r.mu)
	return r
}

// Push enqueues a frame without blocking. If the ring is full the
// oldest frame is evicted and returned so the caller can recycle it
// into the pool; the drop counter is incremented. If the ring is
// closed the frame itself is returned unenqueued.
func (r *Ring) Push(f *audio.Frame) (evicted *audio.Frame) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return f
	}

	if r.count == len(r.frames) {
		evicted = r.frames[r.head]
		r.frames[r.head] = nil
		r.head = (r.head + 1) % len(r.frames)
		r.count--
		r.drops.Add(1)
	}

	tail := (r.head + r.count) % len(r.frames)
	r.frames[tail] = f
	r.count++

	r.mu.Unlock()
	r.nonEmpty.Signal()
	return evicted
}

// Pop blocks until a frame is available or the ring is closed.
// The terminal closed result is (nil, false); any frames still queued
// at close time are drained first so the analyzer sees everything that
// was captured.
func (r *Ring) Pop() (*audio.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.count == 0 && !r.closed {
		r.nonEmpty.Wait()
	}
	if r.count == 0 {
		return nil, false
	}

	f := r.frames[r.head]
	r.frames[r.head] = nil
	r.head = (r.head + 1) % len(r.frames)
	r.count--
	return f, true
}

// Close marks the ring closed and unblocks any waiting Pop. Idempotent.
func (r *Ring) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.nonEmpty.Broadcast()
}

// Drops returns the number of frames evicted due to overflow.
func (r *Ring) Drops() uint64 {
	return r.drops.Load()
}

// Len returns the number of frames currently queued.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
