// SPDX-License-Identifier: MIT
/*
Package analysis implements the spectral stage of the pipeline: frames
are accumulated into a sliding window, smoothed with a window function,
transformed with a real FFT, and reduced to a FeatureVector (magnitude
spectrum, band energies, RMS, onset signal) published on the Bus.

The analyzer runs on its own goroutine, never the render goroutine:
transform computation must not compete with frame presentation inside a
single tick budget.
*/
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"pulseviz/internal/audio"
	applog "pulseviz/internal/log"
	"pulseviz/pkg/bitint"
)

// ErrWindowGeometry is returned when the analysis window configuration
// violates the transform contract: window size not a power of two, or
// hop size not strictly smaller than the window. This is a
// configuration bug, not a runtime condition, and callers treat it as
// fatal.
var ErrWindowGeometry = errors.New("analysis: invalid window geometry")

// Sink receives each published vector after the bus does. Sinks run on
// the analysis goroutine and must not block.
type Sink func(*FeatureVector)

// Config holds the analyzer's fixed parameters. No runtime
// reconfiguration: geometry is validated once at construction.
type Config struct {
	WindowSize int     // FFT window length, power of 2
	HopSize    int     // samples advanced between windows, < WindowSize
	SampleRate float64 // Hz
	Window     WindowFunc
	Gate       float64 // amplitude gate threshold in [0, 1], 0 disables
}

// Analyzer consumes PCM frames and produces FeatureVectors at hop
// cadence. At stream start the window history is zero, so early
// windows are zero-padded at the head and the first vector is
// published immediately (with depressed energy) rather than after a
// full window's worth of silence.
type Analyzer struct {
	windowSize int
	hopSize    int
	sampleRate float64
	gate       int32

	fft          *fourier.FFT
	windowCoeffs []float64

	// history is the sliding sample window; hopFill counts samples
	// accumulated toward the next hop boundary.
	history      []int32
	hopFill      int
	totalSamples uint64
	seq          uint64

	// Pre-allocated transform workspace.
	input  []float64
	output []complex128

	onset *OnsetDetector
	bus   *Bus
	sinks []Sink
}

// normFactor maps int32 samples to [-1.0, 1.0).
const normFactor = 1.0 / float64(0x80000000)

// NewAnalyzer validates the window geometry and pre-allocates all
// transform buffers. Fails with ErrWindowGeometry on a violating
// configuration.
func NewAnalyzer(cfg Config, bus *Bus) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(cfg.WindowSize) {
		return nil, fmt.Errorf("%w: window size %d is not a power of 2", ErrWindowGeometry, cfg.WindowSize)
	}
	if cfg.HopSize < 1 || cfg.HopSize >= cfg.WindowSize {
		return nil, fmt.Errorf("%w: hop size %d must be in [1, %d)", ErrWindowGeometry, cfg.HopSize, cfg.WindowSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %g", ErrWindowGeometry, cfg.SampleRate)
	}

	bins := cfg.WindowSize/2 + 1

	applog.Infof("Analysis: initializing analyzer (window %d, hop %d, %.1f Hz, %s)",
		cfg.WindowSize, cfg.HopSize, cfg.SampleRate, cfg.Window)

	return &Analyzer{
		windowSize:   cfg.WindowSize,
		hopSize:      cfg.HopSize,
		sampleRate:   cfg.SampleRate,
		gate:         gateThreshold(cfg.Gate),
		fft:          fourier.NewFFT(cfg.WindowSize),
		windowCoeffs: windowCoefficients(cfg.WindowSize, cfg.Window),
		history:      make([]int32, cfg.WindowSize),
		input:        make([]float64, cfg.WindowSize),
		output:       make([]complex128, bins),
		onset:        NewOnsetDetector(0.02, 1.5, 250*time.Millisecond, cfg.SampleRate),
		bus:          bus,
	}, nil
}

// AddSink registers a sink invoked after each publish. Not safe to call
// once feeding has started.
func (a *Analyzer) AddSink(s Sink) {
	a.sinks = append(a.sinks, s)
}

// Onsets exposes the onset detector for counter resets from the UI.
func (a *Analyzer) Onsets() *OnsetDetector {
	return a.onset
}

// Bins returns the number of frequency bins per vector.
func (a *Analyzer) Bins() int {
	return a.windowSize/2 + 1
}

// FrequencyForBin returns the center frequency (Hz) of an FFT bin.
func (a *Analyzer) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin > a.windowSize/2 {
		return 0
	}
	return float64(bin) * a.sampleRate / float64(a.windowSize)
}

// Feed absorbs one frame into the sliding window, emitting a vector at
// every hop boundary the frame crosses. The frame's samples are copied;
// ownership stays with the caller, which releases the frame afterwards.
func (a *Analyzer) Feed(f *audio.Frame) {
	samples := f.Samples
	for len(samples) > 0 {
		n := a.hopSize - a.hopFill
		if n > len(samples) {
			n = len(samples)
		}
		a.slide(samples[:n])
		samples = samples[n:]
		a.hopFill += n
		a.totalSamples += uint64(n)

		if a.hopFill == a.hopSize {
			a.hopFill = 0
			a.emit()
		}
	}
}

// slide shifts the window history left and appends the chunk at the
// tail; chunk length never exceeds the hop, which is strictly smaller
// than the window.
func (a *Analyzer) slide(chunk []int32) {
	copy(a.history, a.history[len(chunk):])
	copy(a.history[a.windowSize-len(chunk):], chunk)
}

// emit derives one FeatureVector from the current window and publishes
// it. When the amplitude gate is closed the transform is skipped and a
// quiescent vector (zero magnitudes, preserved timestamp) goes out
// instead, so downstream cadence never stalls.
func (a *Analyzer) emit() {
	timestamp := time.Duration(float64(a.totalSamples) / a.sampleRate * float64(time.Second))
	a.seq++

	rms := a.rms()

	v := &FeatureVector{
		Seq:       a.seq,
		Timestamp: timestamp,
		RMS:       rms,
	}
	v.Onset = a.onset.Observe(rms, timestamp)
	v.OnsetCount = a.onset.Count()

	if a.gate > 0 && maxAmplitude(a.history) < a.gate {
		v.Magnitudes = make([]float64, len(a.output))
		v.Bands = quiescentBands()
	} else {
		v.Magnitudes = a.transform()
		v.Bands = a.bandEnergies(v.Magnitudes)
	}

	a.bus.Publish(v)
	for _, s := range a.sinks {
		s(v)
	}
}

// transform windows the history, runs the FFT and returns fresh
// magnitudes normalized by window length. The returned slice is newly
// allocated because vectors are immutable snapshots held by readers.
func (a *Analyzer) transform() []float64 {
	for i, sample := range a.history {
		a.input[i] = float64(sample) * normFactor * a.windowCoeffs[i]
	}
	a.fft.Coefficients(a.output, a.input)

	magnitudes := make([]float64, len(a.output))
	norm := 1.0 / float64(a.windowSize)
	for i, c := range a.output {
		magnitudes[i] = cmplx.Abs(c) * norm
	}
	return magnitudes
}

// rms computes the root mean square of the normalized window.
func (a *Analyzer) rms() float64 {
	var sumSquare float64
	for _, sample := range a.history {
		f := float64(sample) * normFactor
		sumSquare += f * f
	}
	return math.Sqrt(sumSquare / float64(a.windowSize))
}

// bandEnergies sums magnitude energy per band over the bin ranges the
// band boundaries map to, capped at Nyquist, and normalizes each to
// [0, 1] for display.
func (a *Analyzer) bandEnergies(magnitudes []float64) []BandEnergy {
	nyquist := a.sampleRate / 2
	out := make([]BandEnergy, len(DefaultBands))

	for i, band := range DefaultBands {
		high := band.HighHz
		if high > nyquist {
			high = nyquist
		}
		lo := int(band.LowHz * float64(a.windowSize) / a.sampleRate)
		hi := int(high * float64(a.windowSize) / a.sampleRate)
		if lo < 0 {
			lo = 0
		}
		if hi > len(magnitudes)-1 {
			hi = len(magnitudes) - 1
		}

		var sum float64
		bins := 0
		for k := lo; k <= hi; k++ {
			sum += magnitudes[k] * magnitudes[k]
			bins++
		}

		energy := 0.0
		if bins > 0 {
			energy = math.Min(1.0, math.Sqrt(sum/float64(bins))*50.0)
		}
		out[i] = BandEnergy{Name: band.Name, Energy: energy}
	}
	return out
}

func quiescentBands() []BandEnergy {
	out := make([]BandEnergy, len(DefaultBands))
	for i, band := range DefaultBands {
		out[i] = BandEnergy{Name: band.Name}
	}
	return out
}
