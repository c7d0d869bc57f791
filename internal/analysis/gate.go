// SPDX-License-Identifier: MIT
package analysis

import "math"

// maxAmplitude returns the peak absolute sample value using branchless
// arithmetic: no comparisons in the scan, so the loop stays predictable
// at analysis rates.
func maxAmplitude(buffer []int32) int32 {
	var max int32
	for i := range buffer {
		sample := buffer[i]
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		diff := amplitude - max
		max += (diff & (diff >> 31)) ^ diff
	}
	return max
}

// gateThreshold converts a normalized threshold in [0, 1] to the int32
// amplitude scale. 0 means the gate is always open.
func gateThreshold(threshold float64) int32 {
	if threshold <= 0 {
		return 0
	}
	if threshold > 1 {
		threshold = 1
	}
	return int32(threshold * float64(math.MaxInt32))
}
