// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"pulseviz/internal/analysis"
	applog "pulseviz/internal/log"
)

// Publisher periodically reads the latest feature vector from the bus,
// packs it into a binary packet and sends it over UDP. It runs on its
// own goroutine between Start and Stop; reading from the bus rather
// than sinking off the analyzer decouples the packet rate from the
// analysis cadence.
type Publisher struct {
	sender   *Sender
	bus      *analysis.Bus
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	lastSeq uint64

	// Pre-allocated buffers for packet construction.
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher. An interval <= 0 defaults to 16ms
// (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, bus *analysis.Bus) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP publisher: sender cannot be nil")
	}
	if bus == nil {
		return nil, fmt.Errorf("UDP publisher: bus cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Transport: invalid UDP interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		bus:          bus,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publisher goroutine. Safe to call once per
// Start/Stop cycle; further calls while running are no-ops.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Transport: UDP publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.sendLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Idempotent.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}

/*
UDP packet layout (BigEndian):

	+------------------+---------+-------+--------------------------------+
	| Field            | Type    | Bytes | Description                    |
	+------------------+---------+-------+--------------------------------+
	| Sequence         | uint64  | 8     | Vector sequence number         |
	| Timestamp        | int64   | 8     | Window end, ns from stream     |
	| RMS              | float32 | 4     | Window RMS                     |
	| Band count       | uint16  | 2     | Number of band energies (B)    |
	| Band energies    | f32[B]  | B*4   | DefaultBands order             |
	| Magnitude count  | uint16  | 2     | Number of spectrum bins (N)    |
	| Magnitudes       | f32[N]  | N*4   | Normalized magnitude spectrum  |
	+------------------+---------+-------+--------------------------------+
*/

// sendLatest packs and sends the bus's current vector, skipping ticks
// where nothing new has been published.
func (p *Publisher) sendLatest() {
	v, ok := p.bus.Latest()
	if !ok || v.Seq == p.lastSeq {
		return
	}
	p.lastSeq = v.Seq

	if len(p.f32Buffer) < len(v.Magnitudes) {
		p.f32Buffer = make([]float32, len(v.Magnitudes))
	}
	f32 := p.f32Buffer[:len(v.Magnitudes)]
	for i, m := range v.Magnitudes {
		f32[i] = float32(m)
	}

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, v.Seq)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, int64(v.Timestamp))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(v.RMS))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(v.Bands)))
	}
	for i := 0; err == nil && i < len(v.Bands); i++ {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(v.Bands[i].Energy))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(f32)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, f32)
	}
	if err != nil {
		applog.Errorf("Transport: UDP packet encode error: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		applog.Debugf("Transport: UDP send error: %v", err)
	}
}
