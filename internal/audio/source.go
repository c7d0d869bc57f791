// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"pulseviz/internal/config"
	applog "pulseviz/internal/log"
)

// FrameSink accepts captured frames. Push must never block; on overflow
// it returns the evicted frame so the source can recycle it.
type FrameSink interface {
	Push(f *Frame) (evicted *Frame)
}

// Source wraps a PortAudio input stream. Frames are taken from a
// pre-allocated pool inside the capture callback, stamped with a
// sequence number and sample-clock end time, folded to mono if needed,
// and handed to the sink. The hardware device is exclusively owned by
// the Source between Open and Close.
type Source struct {
	sampleRate      float64
	channels        int
	framesPerBuffer int

	pool *FramePool
	sink FrameSink

	device  *portaudio.DeviceInfo
	stream  *portaudio.Stream
	latency time.Duration

	seq          uint64
	totalSamples uint64

	// lastFrame is the wall-clock time of the most recent callback,
	// watched to detect a silently dead stream (device unplugged).
	lastFrame atomic.Int64

	errCh     chan error
	watchStop chan struct{}
	stopOnce  sync.Once
	started   bool
	mu        sync.Mutex
}

// NewSource resolves the input device and prepares a Source. The stream
// is not opened yet; call Open then Start.
func NewSource(cfg *config.Config, pool *FramePool, sink FrameSink) (*Source, error) {
	device, err := InputDevice(cfg.Audio.DeviceID)
	if err != nil {
		return nil, err
	}

	s := &Source{
		sampleRate:      cfg.Audio.SampleRate,
		channels:        cfg.Audio.Channels,
		framesPerBuffer: cfg.Audio.FramesPerBuffer,
		pool:            pool,
		sink:            sink,
		device:          device,
		errCh:           make(chan error, 1),
		watchStop:       make(chan struct{}),
	}

	if cfg.Audio.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}

	return s, nil
}

// Open establishes the hardware stream. Fails with
// ErrConfigurationRejected if the device or host API refuses the
// requested rate, channel count or frame size.
func (s *Source) Open() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.channels,
			Device:   s.device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: s.framesPerBuffer,
		SampleRate:      s.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, s.captureCallback)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigurationRejected, err)
	}
	s.stream = stream
	return nil
}

// Start begins capture. The first callback marks the start of the hot
// path. A watchdog goroutine raises ErrStreamInterrupted on the error
// channel if the hardware stops delivering frames mid-run.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return fmt.Errorf("%w: stream not open", ErrConfigurationRejected)
	}
	if s.started {
		return nil
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigurationRejected, err)
	}
	s.started = true
	s.lastFrame.Store(time.Now().UnixNano())

	go s.watch()

	applog.Infof("Audio: capture started (%s, %.0f Hz, %d ch, %d frames/buffer)",
		s.device.Name, s.sampleRate, s.channels, s.framesPerBuffer)
	return nil
}

// Errors returns the channel on which a mid-run stream failure is
// reported. At most one error is ever sent.
func (s *Source) Errors() <-chan error {
	return s.errCh
}

// Close stops the stream and releases the device. Idempotent, and safe
// to call even if the stream already failed or was never started.
func (s *Source) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.watchStop)

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.stream == nil {
			return
		}
		if s.started {
			if stopErr := s.stream.Stop(); stopErr != nil {
				err = fmt.Errorf("failed to stop input stream: %w", stopErr)
			}
			s.started = false
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close input stream: %w", closeErr)
		}
		s.stream = nil
	})
	return err
}

// captureCallback is the real-time capture path.
// Performance critical:
//   - Runs on a PortAudio-owned thread and must return promptly
//   - Pool frames only, no allocation
//   - No locks beyond the sink's, no I/O
func (s *Source) captureCallback(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.lastFrame.Store(time.Now().UnixNano())

	f := s.pool.Get()
	if f == nil {
		// Pool exhausted: the consumer is far behind. Drop this buffer;
		// the pool counts the event.
		return
	}

	if s.channels == 1 {
		copy(f.Samples, in)
	} else {
		// Fold interleaved channels to mono, first channel only. The
		// analyzer operates on a mono signal.
		for i := range s.framesPerBuffer {
			idx := i * s.channels
			if idx < len(in) {
				f.Samples[i] = in[idx]
			} else {
				f.Samples[i] = 0
			}
		}
	}

	s.seq++
	s.totalSamples += uint64(s.framesPerBuffer)
	f.Seq = s.seq
	f.End = time.Duration(float64(s.totalSamples) / s.sampleRate * float64(time.Second))

	if evicted := s.sink.Push(f); evicted != nil {
		evicted.Release()
	}
}

// watch raises ErrStreamInterrupted if callbacks stop arriving while
// the stream is supposed to be running.
func (s *Source) watch() {
	const staleAfter = 2 * time.Second

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.watchStop:
			return
		case <-ticker.C:
			last := time.Unix(0, s.lastFrame.Load())
			if time.Since(last) > staleAfter {
				select {
				case s.errCh <- ErrStreamInterrupted:
				default:
				}
				return
			}
		}
	}
}
