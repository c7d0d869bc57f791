// SPDX-License-Identifier: MIT
package buffer

import (
	"testing"
	"time"

	"pulseviz/internal/audio"
)

// frame builds a synthetic pool-less frame with a recognizable sequence
// number. Release on these is a no-op.
func frame(seq uint64) *audio.Frame {
	return &audio.Frame{Seq: seq, Samples: make([]int32, 4)}
}

func TestPushPopOrder(t *testing.T) {
	r := NewRing(8)

	for seq := uint64(1); seq <= 5; seq++ {
		if evicted := r.Push(frame(seq)); evicted != nil {
			t.Fatalf("Push evicted frame %d with ring not full", evicted.Seq)
		}
	}
	if got := r.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	for want := uint64(1); want <= 5; want++ {
		f, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() closed with %d frames expected", 6-want)
		}
		if f.Seq != want {
			t.Errorf("Pop() seq = %d, want %d", f.Seq, want)
		}
	}
}

func TestOverflowEvictsOldest(t *testing.T) {
	const capacity = 4
	const pushed = 10

	r := NewRing(capacity)

	var evictions []uint64
	for seq := uint64(1); seq <= pushed; seq++ {
		if evicted := r.Push(frame(seq)); evicted != nil {
			evictions = append(evictions, evicted.Seq)
		}
	}

	// The oldest frames leave first, in order.
	wantEvicted := pushed - capacity
	if len(evictions) != wantEvicted {
		t.Fatalf("evictions = %d, want %d", len(evictions), wantEvicted)
	}
	for i, seq := range evictions {
		if seq != uint64(i+1) {
			t.Errorf("eviction %d has seq %d, want %d", i, seq, i+1)
		}
	}
	if got := r.Drops(); got != uint64(wantEvicted) {
		t.Errorf("Drops() = %d, want %d", got, wantEvicted)
	}

	// The survivors are the most recent frames, still in order.
	for want := uint64(pushed - capacity + 1); want <= pushed; want++ {
		f, ok := r.Pop()
		if !ok {
			t.Fatal("Pop() reported closed with frames queued")
		}
		if f.Seq != want {
			t.Errorf("Pop() seq = %d, want %d", f.Seq, want)
		}
	}
}

func TestPopBlocksUntilPush(t *testing.T) {
	r := NewRing(2)

	result := make(chan *audio.Frame, 1)
	go func() {
		f, ok := r.Pop()
		if !ok {
			result <- nil
			return
		}
		result <- f
	}()

	// Give the consumer time to park in Pop.
	time.Sleep(20 * time.Millisecond)
	r.Push(frame(42))

	select {
	case f := <-result:
		if f == nil || f.Seq != 42 {
			t.Fatalf("Pop() returned %+v, want frame 42", f)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake after Push")
	}
}

func TestCloseUnblocksPop(t *testing.T) {
	r := NewRing(2)

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	r.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop() returned a frame from an empty closed ring")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake after Close")
	}
}

func TestCloseDrainsQueuedFrames(t *testing.T) {
	r := NewRing(4)
	r.Push(frame(1))
	r.Push(frame(2))
	r.Close()

	// Frames queued before close are still delivered.
	for want := uint64(1); want <= 2; want++ {
		f, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() terminal before draining frame %d", want)
		}
		if f.Seq != want {
			t.Errorf("Pop() seq = %d, want %d", f.Seq, want)
		}
	}

	if _, ok := r.Pop(); ok {
		t.Fatal("Pop() returned a frame after the drain completed")
	}
}

func TestPushAfterCloseReturnsFrame(t *testing.T) {
	r := NewRing(2)
	r.Close()

	f := frame(7)
	if got := r.Push(f); got != f {
		t.Fatalf("Push on closed ring returned %v, want the pushed frame back", got)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after closed push, want 0", r.Len())
	}
}

func TestCloseIdempotent(t *testing.T) {
	r := NewRing(2)
	r.Close()
	r.Close()

	if _, ok := r.Pop(); ok {
		t.Fatal("Pop() returned a frame from a closed ring")
	}
}
