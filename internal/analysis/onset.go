// SPDX-License-Identifier: MIT
package analysis

import (
	"sync/atomic"
	"time"
)

// OnsetDetector flags energy onsets based on the RMS jump between
// consecutive windows. A cooldown suppresses rapid-fire detections from
// a single sustained event, and a running counter tracks onsets across
// the stream for the status display.
type OnsetDetector struct {
	threshold      float64 // minimum RMS to consider at all
	minEnergyRatio float64 // minimum increase over the previous window

	cooldown   time.Duration
	sampleRate float64

	lastEnergy float64
	lastOnset  time.Duration // sample-clock time of the last onset

	count atomic.Uint64
}

// NewOnsetDetector creates a detector. Typical values: threshold 0.02,
// ratio 1.5, cooldown 250ms.
func NewOnsetDetector(threshold, minEnergyRatio float64, cooldown time.Duration, sampleRate float64) *OnsetDetector {
	return &OnsetDetector{
		threshold:      threshold,
		minEnergyRatio: minEnergyRatio,
		cooldown:       cooldown,
		sampleRate:     sampleRate,
	}
}

// Observe feeds one window's RMS at the given sample-clock time and
// reports whether it is an onset.
func (d *OnsetDetector) Observe(rms float64, at time.Duration) bool {
	onset := false
	if rms > d.threshold &&
		(d.lastEnergy == 0 || rms/d.lastEnergy > d.minEnergyRatio) &&
		(d.lastOnset == 0 || at-d.lastOnset >= d.cooldown) {
		onset = true
		d.lastOnset = at
		d.count.Add(1)
	}
	d.lastEnergy = rms
	return onset
}

// Count returns the running onset total.
func (d *OnsetDetector) Count() uint64 {
	return d.count.Load()
}

// Reset zeroes the running onset total. Safe to call from the UI
// goroutine while the analyzer is observing.
func (d *OnsetDetector) Reset() {
	d.count.Store(0)
}
