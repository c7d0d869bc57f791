// SPDX-License-Identifier: MIT
package analysis

import "time"

// Band defines the name and frequency range of an energy band. The band
// set is fixed at compile time; vectors always carry the same bands in
// the same order.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands are the visualization bands. Treble is capped at Nyquist
// for low sample rates.
var DefaultBands = []Band{
	{Name: "bass", LowHz: 20, HighHz: 250},
	{Name: "mid", LowHz: 250, HighHz: 4000},
	{Name: "treble", LowHz: 4000, HighHz: 20000},
}

// BandEnergy is the computed level for one band, normalized to [0, 1].
type BandEnergy struct {
	Name   string  `json:"name"`
	Energy float64 `json:"energy"`
}

// FeatureVector is one analysis snapshot: the magnitude spectrum of a
// single window plus derived scalars. Vectors are immutable once
// published and replaced wholesale, never mutated in place.
type FeatureVector struct {
	// Seq increases monotonically per published vector.
	Seq uint64 `json:"seq"`

	// Timestamp is the sample-clock end time of the source window,
	// measured from stream start.
	Timestamp time.Duration `json:"timestamp_ns"`

	// Magnitudes holds |coefficient| / windowSize per frequency bin,
	// length windowSize/2 + 1.
	Magnitudes []float64 `json:"magnitudes"`

	// Bands holds the per-band energies, DefaultBands order.
	Bands []BandEnergy `json:"bands"`

	// RMS is the root mean square of the normalized window.
	RMS float64 `json:"rms"`

	// Onset reports an energy onset in this window; OnsetCount is the
	// running total since stream start (or the last reset).
	Onset      bool   `json:"onset"`
	OnsetCount uint64 `json:"onset_count"`
}
