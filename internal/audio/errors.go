// SPDX-License-Identifier: MIT
package audio

import "errors"

// Sentinel errors for the capture path. Device and configuration errors
// surface at Open and are fatal: device absence is not transient on the
// timescale of a single launch. A stream interruption mid-run triggers
// the pipeline shutdown sequence rather than a retry.
var (
	// ErrDeviceUnavailable means no matching input device exists.
	ErrDeviceUnavailable = errors.New("audio: input device unavailable")

	// ErrConfigurationRejected means the device or host API refused the
	// requested sample rate, channel count or frame size.
	ErrConfigurationRejected = errors.New("audio: stream configuration rejected")

	// ErrStreamInterrupted means the hardware stream stopped unexpectedly
	// mid-run, e.g. the device was unplugged.
	ErrStreamInterrupted = errors.New("audio: input stream interrupted")
)
