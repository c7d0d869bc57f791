// SPDX-License-Identifier: MIT
package analysis

import "sync/atomic"

// Bus is the single-slot, latest-value publish point between the
// analyzer and its readers. Publish atomically replaces the held
// vector; readers always observe a complete snapshot, never a partial
// write. There is no queueing: slow readers skip vectors rather than
// accumulate backlog, which is correct because visualization only ever
// needs the current audio state.
type Bus struct {
	slot atomic.Pointer[FeatureVector]
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish atomically replaces the held vector. The vector must not be
// mutated after publishing.
func (b *Bus) Publish(v *FeatureVector) {
	b.slot.Store(v)
}

// Latest returns the most recent vector, or (nil, false) before the
// first publish. Readers distinguish "new since my last read" via the
// vector's Seq.
func (b *Bus) Latest() (*FeatureVector, bool) {
	v := b.slot.Load()
	if v == nil {
		return nil, false
	}
	return v, true
}
