// SPDX-License-Identifier: MIT
/*
Package render implements the presentation side of the pipeline: the
VisualState derived from feature vectors, the smoothing that bridges
the audio update rate and the render rate, and the fixed-rate Loop that
hands state to a Renderer once per tick.
*/
package render

import (
	"math"

	"pulseviz/internal/analysis"
)

// VisualState is the renderer-facing view of the audio. It is owned
// solely by the render loop and never escapes to other goroutines;
// renderers copy what they need during Present.
type VisualState struct {
	// Bars holds smoothed, log-spaced spectrum bar heights in [0, 1].
	Bars []float64

	// Bands holds smoothed band levels, analysis.DefaultBands order.
	Bands []float64

	// Energy is the smoothed RMS level.
	Energy float64

	// Pulse flares to 1 on an onset and decays each tick.
	Pulse float64

	// OnsetCount mirrors the analyzer's running onset total.
	OnsetCount uint64

	// LastSeq is the sequence number of the last vector absorbed, used
	// to detect a stale bus.
	LastSeq uint64
}

// Smoother blends VisualState toward incoming feature vectors with a
// fast attack and slow decay, so bars jump on transients but fall
// smoothly, and decays toward a silent baseline when the bus goes
// stale, so the display softens rather than freezes.
type Smoother struct {
	attack     float64 // blend factor when the target is above current
	decay      float64 // blend factor when the target is below current
	pulseDecay float64 // per-tick multiplier for the onset pulse

	numBars int
	binLo   []int // per-bar inclusive start bin
	binHi   []int // per-bar exclusive end bin
	targets []float64
}

// NewSmoother creates a smoother producing numBars log-spaced bars from
// spectra with the given bin count. Logarithmic spacing matches pitch
// perception; linear spacing would spend most bars on treble.
func NewSmoother(numBars, bins int) *Smoother {
	s := &Smoother{
		attack:     0.6,
		decay:      0.15,
		pulseDecay: 0.85,
		numBars:    numBars,
		binLo:      make([]int, numBars),
		binHi:      make([]int, numBars),
		targets:    make([]float64, numBars),
	}

	maxBin := bins - 1
	if maxBin < 1 {
		maxBin = 1
	}
	for b := range numBars {
		lo := int(math.Pow(float64(maxBin), float64(b)/float64(numBars)))
		hi := int(math.Pow(float64(maxBin), float64(b+1)/float64(numBars)))
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin+1 {
			hi = maxBin + 1
		}
		s.binLo[b] = lo
		s.binHi[b] = hi
	}
	return s
}

// NewState returns a zeroed VisualState sized for the smoother.
func (s *Smoother) NewState() *VisualState {
	return &VisualState{
		Bars:  make([]float64, s.numBars),
		Bands: make([]float64, len(analysis.DefaultBands)),
	}
}

// Apply blends the state toward the targets implied by a fresh vector.
func (s *Smoother) Apply(st *VisualState, v *analysis.FeatureVector) {
	s.barTargets(v.Magnitudes)
	for i := range st.Bars {
		st.Bars[i] = s.blend(st.Bars[i], s.targets[i])
	}
	for i := range st.Bands {
		if i < len(v.Bands) {
			st.Bands[i] = s.blend(st.Bands[i], v.Bands[i].Energy)
		}
	}
	st.Energy = s.blend(st.Energy, v.RMS)
	if v.Onset {
		st.Pulse = 1.0
	} else {
		st.Pulse *= s.pulseDecay
	}
	st.OnsetCount = v.OnsetCount
	st.LastSeq = v.Seq
}

// Decay moves the state toward the silent baseline, one tick's worth.
// Used when the bus has nothing new: the analyzer window may simply not
// be full yet, which is not an error.
func (s *Smoother) Decay(st *VisualState) {
	for i := range st.Bars {
		st.Bars[i] *= 1 - s.decay
	}
	for i := range st.Bands {
		st.Bands[i] *= 1 - s.decay
	}
	st.Energy *= 1 - s.decay
	st.Pulse *= s.pulseDecay
}

func (s *Smoother) blend(current, target float64) float64 {
	if target > current {
		return current + (target-current)*s.attack
	}
	return current + (target-current)*s.decay
}

// barTargets aggregates magnitudes into per-bar targets, average
// magnitude per log-spaced bin range with a display scale.
func (s *Smoother) barTargets(magnitudes []float64) {
	for b := range s.numBars {
		lo, hi := s.binLo[b], s.binHi[b]
		if hi > len(magnitudes) {
			hi = len(magnitudes)
		}
		var sum float64
		n := 0
		for i := lo; i < hi; i++ {
			sum += magnitudes[i]
			n++
		}
		target := 0.0
		if n > 0 {
			target = math.Min(1.0, (sum/float64(n))*40.0)
		}
		s.targets[b] = target
	}
}
