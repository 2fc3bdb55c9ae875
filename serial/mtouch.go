package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xianyo/tscalibrator/models"
)

// MicroTouch tablet format
const (
	PacketLength  = 5
	MaxCoordinate = 16383

	statusBit   = 0x80
	touchBit    = 0x40
	responseSOH = 0x01
	responseEnd = 0x0D
)

// Packet is one decoded tablet report.
type Packet struct {
	Touch bool
	X, Y  int32
}

// Decoder reassembles tablet packets from a byte stream. Command responses
// (<SOH> ... <CR>) are skipped.
type Decoder struct {
	buf      [PacketLength]byte
	n        int
	response bool
}

// Feed consumes one byte and reports a packet when one completes.
func (d *Decoder) Feed(b byte) (Packet, bool) {
	if d.response {
		if b == responseEnd {
			d.response = false
		}
		return Packet{}, false
	}
	if d.n == 0 {
		switch {
		case b == responseSOH:
			d.response = true
			return Packet{}, false
		case b&statusBit == 0:
			return Packet{}, false // out of sync
		}
	} else if b&statusBit != 0 {
		d.n = 0 // a status byte restarts the packet
	}
	d.buf[d.n] = b
	d.n++
	if d.n < PacketLength {
		return Packet{}, false
	}
	d.n = 0
	return Packet{
		Touch: d.buf[0]&touchBit != 0,
		X:     int32(d.buf[2])<<7 | int32(d.buf[1]&0x7F),
		Y:     int32(d.buf[4])<<7 | int32(d.buf[3]&0x7F),
	}, true
}

// Events expands a packet into one report frame.
func (p Packet) Events() []models.Event {
	touch := int32(0)
	if p.Touch {
		touch = 1
	}
	return []models.Event{
		{Kind: models.EventAxisX, Value: p.X},
		{Kind: models.EventAxisY, Value: p.Y},
		{Kind: models.EventTouch, Value: touch},
		{Kind: models.EventSync},
	}
}

// Touch is a serial touch controller. Its port must return from Read within
// a short read timeout so PollEvents can honour its own timeout.
type Touch struct {
	port io.ReadWriteCloser
	dec  Decoder
	rng  models.Range
	buf  []byte
}

func NewTouch(port io.ReadWriteCloser, r models.Range) *Touch {
	return &Touch{port: port, rng: r, buf: make([]byte, 64)}
}

func (t *Touch) Range() models.Range { return t.rng }

// PollEvents reads until at least one packet decodes or timeout passes.
func (t *Touch) PollEvents(timeout time.Duration) ([]models.Event, error) {
	deadline := time.Now().Add(timeout)
	var out []models.Event
	for {
		n, err := t.port.Read(t.buf)
		for _, b := range t.buf[:n] {
			if p, ok := t.dec.Feed(b); ok {
				out = append(out, p.Events()...)
			}
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
			return out, fmt.Errorf("read touch controller: %w", err)
		}
		if len(out) > 0 || !time.Now().Before(deadline) {
			return out, nil
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

func (t *Touch) Close() error { return t.port.Close() }
