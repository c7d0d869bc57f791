// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the pipeline:
- PortAudio subsystem lifecycle and device enumeration
- Source, the input stream wrapper whose callback delivers pooled PCM frames
- FramePool, the pre-allocated frame arena the callback draws from
- Recorder, optional WAV recording fed from the analysis goroutine

Thread safety: the capture callback runs on a PortAudio-owned thread and
must return promptly. It only takes a frame from the pool, stamps it and
pushes it downstream; no allocation, no locks beyond the ring's, no I/O.
*/
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Initialize sets up the PortAudio subsystem. Must be called before any
// audio operations and paired with a Terminate call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem. Defer this
// immediately after Initialize.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}
