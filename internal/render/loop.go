// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"fmt"
	"time"

	"pulseviz/internal/analysis"
	applog "pulseviz/internal/log"
)

// Renderer presents one VisualState per tick. Implementations must not
// retain the state pointer past the call; they copy what they need.
type Renderer interface {
	Present(st *VisualState) error
}

// Loop runs at a fixed target rate independent of the audio frame
// cadence. Each tick it reads the bus, updates the VisualState and
// presents a frame. When the bus has no new vector for several ticks
// the state decays toward baseline rather than freezing.
type Loop struct {
	bus      *analysis.Bus
	smoother *Smoother
	state    *VisualState
	renderer Renderer
	interval time.Duration
}

// NewLoop creates a render loop at targetFPS.
func NewLoop(bus *analysis.Bus, smoother *Smoother, renderer Renderer, targetFPS int) (*Loop, error) {
	if targetFPS < 1 {
		return nil, fmt.Errorf("render: target FPS must be positive, got %d", targetFPS)
	}
	return &Loop{
		bus:      bus,
		smoother: smoother,
		state:    smoother.NewState(),
		renderer: renderer,
		interval: time.Second / time.Duration(targetFPS),
	}, nil
}

// Tick performs one render step: read the bus, blend or decay, present.
// Exposed for tests; Run calls it on the ticker cadence.
func (l *Loop) Tick() error {
	if v, ok := l.bus.Latest(); ok && v.Seq != l.state.LastSeq {
		l.smoother.Apply(l.state, v)
	} else {
		l.smoother.Decay(l.state)
	}
	return l.renderer.Present(l.state)
}

// State exposes the loop-owned state for tests.
func (l *Loop) State() *VisualState {
	return l.state
}

// Run ticks until the context is cancelled, presenting a final frame
// before returning. Renderer errors are logged, not fatal: a dropped
// visual frame does not justify tearing down the audio path.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := l.Tick(); err != nil {
				applog.Debugf("Render: final frame failed: %v", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := l.Tick(); err != nil {
				applog.Warnf("Render: present failed: %v", err)
			}
		}
	}
}
