// SPDX-License-Identifier: MIT
/*
Package pipeline wires the stages together and owns their lifetimes:

	source -> ring -> analyzer -> bus -> render loop
	                           -> transports (sinks)

Shutdown ordering, triggered by context cancellation or a capture
error: the source stops producing, the ring closes so the analyzer's
pop returns its terminal result, the analyzer drains and exits, and the
render loop observes cancellation and exits after presenting a final
frame. Cancellation is idempotent; runtime errors in the capture path
propagate here and initiate the same orderly shutdown rather than
leaving the pipeline running degraded.
*/
package pipeline

import (
	"context"
	"errors"
	"sync"

	"pulseviz/internal/analysis"
	"pulseviz/internal/audio"
	"pulseviz/internal/buffer"
	applog "pulseviz/internal/log"
	"pulseviz/internal/render"
	"pulseviz/internal/transport"
)

// FrameSource is the capture stage as the pipeline sees it. The real
// implementation is audio.Source; tests substitute a synthetic source
// that pushes frames into the ring directly.
type FrameSource interface {
	Start() error
	Close() error
	Errors() <-chan error
}

// Pipeline coordinates the long-lived stages.
type Pipeline struct {
	source     FrameSource
	ring       *buffer.Ring
	analyzer   *analysis.Analyzer
	loop       *render.Loop
	recorder   *audio.Recorder // optional
	transports []transport.Transport

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New assembles a pipeline. recorder may be nil; transports may be
// empty.
func New(source FrameSource, ring *buffer.Ring, analyzer *analysis.Analyzer,
	loop *render.Loop, recorder *audio.Recorder, transports []transport.Transport) *Pipeline {

	p := &Pipeline{
		source:     source,
		ring:       ring,
		analyzer:   analyzer,
		loop:       loop,
		recorder:   recorder,
		transports: transports,
	}

	for _, t := range transports {
		analyzer.AddSink(func(v *analysis.FeatureVector) {
			if err := t.Send(v); err != nil {
				applog.Debugf("Pipeline: transport send failed: %v", err)
			}
		})
	}
	return p
}

// Run starts capture and analysis, then blocks in the render loop until
// ctx is cancelled or the capture path fails. All stages are unwound
// before Run returns. Calling the cancellation twice produces the same
// terminal state as once.
func (p *Pipeline) Run(ctx context.Context) error {
	ictx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.source.Start(); err != nil {
		p.shutdown()
		return err
	}

	// Analysis goroutine: drains the ring until its terminal closed
	// result, feeding the recorder first so the WAV sees every frame
	// that reached analysis.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			f, ok := p.ring.Pop()
			if !ok {
				return
			}
			if p.recorder != nil {
				if err := p.recorder.Write(f); err != nil {
					applog.Warnf("Pipeline: recording write failed: %v", err)
				}
			}
			p.analyzer.Feed(f)
			f.Release()
		}
	}()

	// Watch goroutine: a capture error or cancellation starts the
	// shutdown sequence exactly once.
	var captureErr error
	var errMu sync.Mutex
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case err := <-p.source.Errors():
			applog.Errorf("Pipeline: capture failed: %v", err)
			errMu.Lock()
			captureErr = err
			errMu.Unlock()
			cancel()
		case <-ictx.Done():
		}
		p.shutdown()
	}()

	// Render loop runs on the calling goroutine at its fixed cadence.
	loopErr := p.loop.Run(ictx)

	cancel()
	p.wg.Wait()
	p.closeOutputs()

	errMu.Lock()
	defer errMu.Unlock()
	if captureErr != nil {
		return captureErr
	}
	if errors.Is(loopErr, context.Canceled) {
		return nil
	}
	return loopErr
}

// shutdown stops the source and closes the ring, in that order, exactly
// once. The closed ring unblocks the analysis goroutine.
func (p *Pipeline) shutdown() {
	p.stopOnce.Do(func() {
		if err := p.source.Close(); err != nil {
			applog.Warnf("Pipeline: source close failed: %v", err)
		}
		p.ring.Close()
		if drops := p.ring.Drops(); drops > 0 {
			applog.Infof("Pipeline: %d frames dropped under backpressure", drops)
		}
	})
}

// closeOutputs finalizes the recorder and transports after the stages
// have exited.
func (p *Pipeline) closeOutputs() {
	if p.recorder != nil {
		if err := p.recorder.Close(); err != nil {
			applog.Warnf("Pipeline: recording close failed: %v", err)
		}
	}
	for _, t := range p.transports {
		if err := t.Close(); err != nil {
			applog.Warnf("Pipeline: transport close failed: %v", err)
		}
	}
}
