// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"pulseviz/internal/analysis"
)

// listen opens a loopback UDP listener and returns it with its address.
func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to open loopback listener: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testVector() *analysis.FeatureVector {
	return &analysis.FeatureVector{
		Seq:       7,
		Timestamp: 25 * time.Millisecond,
		RMS:       0.125,
		Magnitudes: []float64{
			0.5, 0.25, 0.125, 0.0625,
		},
		Bands: []analysis.BandEnergy{
			{Name: "bass", Energy: 0.75},
			{Name: "mid", Energy: 0.5},
			{Name: "treble", Energy: 0.25},
		},
	}
}

func TestPublisherPacketLayout(t *testing.T) {
	listener := listen(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	bus := analysis.NewBus()
	pub, err := NewPublisher(time.Millisecond, sender, bus)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	want := testVector()
	bus.Publish(want)

	pub.Start()
	defer pub.Stop()

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	packet := make([]byte, 2048)
	n, _, err := listener.ReadFromUDP(packet)
	if err != nil {
		t.Fatalf("no packet received: %v", err)
	}

	r := bytes.NewReader(packet[:n])
	var (
		seq       uint64
		timestamp int64
		rms       float32
		bandCount uint16
	)
	binary.Read(r, binary.BigEndian, &seq)
	binary.Read(r, binary.BigEndian, &timestamp)
	binary.Read(r, binary.BigEndian, &rms)
	binary.Read(r, binary.BigEndian, &bandCount)

	if seq != want.Seq {
		t.Errorf("seq = %d, want %d", seq, want.Seq)
	}
	if timestamp != int64(want.Timestamp) {
		t.Errorf("timestamp = %d, want %d", timestamp, int64(want.Timestamp))
	}
	if rms != float32(want.RMS) {
		t.Errorf("rms = %f, want %f", rms, want.RMS)
	}
	if int(bandCount) != len(want.Bands) {
		t.Fatalf("band count = %d, want %d", bandCount, len(want.Bands))
	}

	bands := make([]float32, bandCount)
	if err := binary.Read(r, binary.BigEndian, bands); err != nil {
		t.Fatalf("failed to read band energies: %v", err)
	}
	for i, b := range bands {
		if b != float32(want.Bands[i].Energy) {
			t.Errorf("band %d = %f, want %f", i, b, want.Bands[i].Energy)
		}
	}

	var magCount uint16
	if err := binary.Read(r, binary.BigEndian, &magCount); err != nil {
		t.Fatalf("failed to read magnitude count: %v", err)
	}
	if int(magCount) != len(want.Magnitudes) {
		t.Fatalf("magnitude count = %d, want %d", magCount, len(want.Magnitudes))
	}
	magnitudes := make([]float32, magCount)
	if err := binary.Read(r, binary.BigEndian, magnitudes); err != nil {
		t.Fatalf("failed to read magnitudes: %v", err)
	}
	for i, m := range magnitudes {
		if m != float32(want.Magnitudes[i]) {
			t.Errorf("magnitude %d = %f, want %f", i, m, want.Magnitudes[i])
		}
	}
	if r.Len() != 0 {
		t.Errorf("%d trailing bytes after the declared fields", r.Len())
	}
}

func TestPublisherSkipsStaleVectors(t *testing.T) {
	listener := listen(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}
	defer sender.Close()

	bus := analysis.NewBus()
	pub, err := NewPublisher(time.Millisecond, sender, bus)
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}

	bus.Publish(testVector())
	pub.Start()

	// First packet goes out; with no new publishes the publisher stays
	// quiet instead of repeating itself.
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	packet := make([]byte, 2048)
	if _, _, err := listener.ReadFromUDP(packet); err != nil {
		t.Fatalf("no initial packet: %v", err)
	}

	listener.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := listener.ReadFromUDP(packet); err == nil {
		t.Error("publisher re-sent a vector that had not changed")
	}

	if err := pub.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestSenderClosedRejectsSend(t *testing.T) {
	listener := listen(t)

	sender, err := NewSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	if err := sender.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := sender.Send([]byte{1, 2, 3}); err == nil {
		t.Error("Send succeeded on a closed sender")
	}
}
