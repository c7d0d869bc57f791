// SPDX-License-Identifier: MIT
//
// Package bitint provides power-of-two helpers for buffer and transform
// sizing. All operations are constant time and allocation free, safe to
// call from the real-time audio path.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Exact powers of 2 are returned unchanged; zero and negative
// inputs return 1.
//
// The size-1 subtraction is what preserves exact powers of 2:
// bits.Len(7) == 3 so 8 maps to 1<<3 == 8, while bits.Len(8) == 4
// would incorrectly double it.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
