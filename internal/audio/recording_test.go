// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func testToneFrame(seq uint64) *Frame {
	f := &Frame{
		Samples:    make([]int32, testFrameSize),
		SampleRate: testSampleRate,
		Seq:        seq,
	}
	for i := range f.Samples {
		f.Samples[i] = int32((i%256 - 128) * 1000000)
	}
	return f
}

func TestRecorderWriteClose(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")

	r, err := NewRecorder(filename, testSampleRate, testFrameSize, 32)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if atomic.LoadInt32(&r.active) != 1 {
		t.Error("recorder should be active after creation")
	}

	for seq := uint64(1); seq <= 4; seq++ {
		if err := r.Write(testToneFrame(seq)); err != nil {
			t.Fatalf("Write failed on frame %d: %v", seq, err)
		}
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if atomic.LoadInt32(&r.active) != 0 {
		t.Error("recorder should be inactive after Close")
	}

	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("recording file missing: %v", err)
	}
	// 44-byte WAV header plus 4 frames of 32-bit samples.
	wantMin := int64(44 + 4*testFrameSize*4)
	if info.Size() < wantMin {
		t.Errorf("recording size = %d bytes, want at least %d", info.Size(), wantMin)
	}
}

func TestRecorderCloseIdempotent(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")

	r, err := NewRecorder(filename, testSampleRate, testFrameSize, 32)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestRecorderWriteAfterClose(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")

	r, err := NewRecorder(filename, testSampleRate, testFrameSize, 32)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A draining analysis loop may still hold frames; writes after
	// close are silently dropped, not errors.
	if err := r.Write(testToneFrame(1)); err != nil {
		t.Errorf("Write after Close returned %v, want nil", err)
	}
}

func TestRecorderOversizedFrame(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.wav")

	r, err := NewRecorder(filename, testSampleRate, testFrameSize, 32)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer r.Close()

	// The conversion buffer grows to fit frames larger than the
	// configured size.
	big := &Frame{Samples: make([]int32, testFrameSize*2), SampleRate: testSampleRate}
	if err := r.Write(big); err != nil {
		t.Errorf("Write of oversized frame failed: %v", err)
	}
}
