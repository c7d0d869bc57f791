// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"
	"time"
)

// Frame is one fixed-size block of mono PCM samples moving through the
// pipeline. Frames are owned by whichever stage currently holds them;
// ownership transfers on push/pop and the frame returns to its pool via
// Release once the analyzer has absorbed it. Samples is pool-owned
// storage and must not be retained after Release.
type Frame struct {
	Samples    []int32
	SampleRate float64

	// Seq increases monotonically per captured frame.
	Seq uint64

	// End is the sample-clock time of the frame's last sample, measured
	// from stream start (total samples / sample rate). Sample-clock time
	// keeps downstream timestamps exact regardless of scheduling jitter.
	End time.Duration

	pool *FramePool
}

// Release returns the frame to its pool. Safe to call on frames without
// a pool (synthetic test frames), in which case it is a no-op.
func (f *Frame) Release() {
	if f.pool != nil {
		f.pool.put(f)
	}
}

// FramePool is a fixed arena of pre-allocated frames. The capture
// callback draws from it instead of allocating, keeping the hot path
// allocation free. When the pool is exhausted the caller drops the
// capture buffer and counts it; exhaustion means the consumer is far
// behind and fresh audio matters more than complete audio.
type FramePool struct {
	free      chan *Frame
	exhausted atomic.Uint64
}

// NewFramePool creates a pool of n frames of frameSize samples each.
func NewFramePool(n, frameSize int, sampleRate float64) *FramePool {
	p := &FramePool{
		free: make(chan *Frame, n),
	}
	for range n {
		p.free <- &Frame{
			Samples:    make([]int32, frameSize),
			SampleRate: sampleRate,
			pool:       p,
		}
	}
	return p
}

// Get takes a frame from the pool without blocking. Returns nil if the
// pool is exhausted, incrementing the exhaustion counter.
func (p *FramePool) Get() *Frame {
	select {
	case f := <-p.free:
		return f
	default:
		p.exhausted.Add(1)
		return nil
	}
}

func (p *FramePool) put(f *Frame) {
	select {
	case p.free <- f:
	default:
		// Double release; the pool is already full. Drop the frame
		// rather than block the caller.
	}
}

// Exhausted returns how many Get calls found the pool empty.
func (p *FramePool) Exhausted() uint64 {
	return p.exhausted.Load()
}

// Free returns the number of frames currently available.
func (p *FramePool) Free() int {
	return len(p.free)
}
