// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder writes captured frames to a WAV file. It is fed from the
// analysis goroutine, never from the capture callback: file I/O has
// unbounded latency and would stall the hardware stream.
type Recorder struct {
	active    int32 // atomic flag for thread-safe state checks
	file      *os.File
	encoder   *wav.Encoder
	sampleBuf *gaudio.IntBuffer // reusable buffer for format conversion
}

// NewRecorder creates a WAV file and an encoder for mono int32 frames.
func NewRecorder(filename string, sampleRate float64, frameSize, bitDepth int) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	r := &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, int(sampleRate), bitDepth, 1, 1),
		sampleBuf: &gaudio.IntBuffer{
			Format: &gaudio.Format{
				NumChannels: 1,
				SampleRate:  int(sampleRate),
			},
			Data: make([]int, frameSize),
		},
	}
	atomic.StoreInt32(&r.active, 1)
	return r, nil
}

// Write encodes one frame. Returns nil after Close so a draining
// analysis loop does not fail on stragglers.
func (r *Recorder) Write(f *Frame) error {
	if atomic.LoadInt32(&r.active) == 0 {
		return nil
	}

	if len(r.sampleBuf.Data) < len(f.Samples) {
		r.sampleBuf.Data = make([]int, len(f.Samples))
	}
	for i, sample := range f.Samples {
		r.sampleBuf.Data[i] = int(sample)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(f.Samples)]

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file. Idempotent.
func (r *Recorder) Close() error {
	if !atomic.CompareAndSwapInt32(&r.active, 1, 0) {
		return nil
	}

	if err := r.encoder.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close recording file: %w", err)
	}
	return nil
}
