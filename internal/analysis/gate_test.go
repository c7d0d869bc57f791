// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestMaxAmplitude(t *testing.T) {
	tests := []struct {
		name   string
		buffer []int32
		want   int32
	}{
		{"Empty", []int32{}, 0},
		{"Silence", []int32{0, 0, 0, 0}, 0},
		{"Positive Peak", []int32{1, 5, 3, 2}, 5},
		{"Negative Peak", []int32{-1, -9, -3}, 9},
		{"Mixed Signs", []int32{-7, 3, 6, -2}, 7},
		{"Near Full Scale", []int32{math.MaxInt32, -math.MaxInt32}, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maxAmplitude(tt.buffer); got != tt.want {
				t.Errorf("maxAmplitude(%v) = %d, want %d", tt.buffer, got, tt.want)
			}
		})
	}
}

func TestMaxAmplitudeZeroAllocs(t *testing.T) {
	buffer := make([]int32, 1024)
	for i := range buffer {
		buffer[i] = int32((i%256 - 128) * 1000000)
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = maxAmplitude(buffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in amplitude scan, got %.1f", allocs)
	}
}

func TestGateThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      int32
	}{
		{"Disabled", 0, 0},
		{"Negative Clamps To Open", -0.5, 0},
		{"Full Scale", 1.0, math.MaxInt32},
		{"Above One Clamps", 2.0, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gateThreshold(tt.threshold); got != tt.want {
				t.Errorf("gateThreshold(%f) = %d, want %d", tt.threshold, got, tt.want)
			}
		})
	}

	// A mid-range threshold lands proportionally on the int32 scale.
	got := gateThreshold(0.5)
	half := 0.5 * float64(math.MaxInt32)
	want := int32(half)
	if got < want-1 || got > want+1 {
		t.Errorf("gateThreshold(0.5) = %d, want ~%d", got, want)
	}
}
