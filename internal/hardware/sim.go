package hardware

import (
	"log"
	"math"
	"sync"
	"time"
)

// Simulated moisture dynamics, in raw ADC counts per second. Lower raw means
// wetter soil, so watering pulls the value down toward the wet bound and
// idle soil drifts back up toward the dry bound.
const (
	simWetPerSec = 6.0
	simDryPerSec = 0.5
)

type simChannel struct {
	raw     float64
	last    time.Time
	pumpPin string
	dryRaw  float64
	wetRaw  float64
}

// SimBoard emulates the garden hardware in memory. Each analog channel is
// tied to the pump pin that waters it and integrates the gain/decay curve
// between reads.
type SimBoard struct {
	mu       sync.Mutex
	now      func() time.Time
	channels map[int]*simChannel
	pins     map[string]bool
}

func NewSimBoard(now func() time.Time) *SimBoard {
	if now == nil {
		now = time.Now
	}
	return &SimBoard{
		now:      now,
		channels: make(map[int]*simChannel),
		pins:     make(map[string]bool),
	}
}

// AddChannel registers one zone's probe. seedRaw is the initial reading;
// dryRaw/wetRaw bound the drift.
func (b *SimBoard) AddChannel(channel int, pumpPin string, seedRaw, dryRaw, wetRaw int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels[channel] = &simChannel{
		raw:     float64(seedRaw),
		last:    b.now(),
		pumpPin: pumpPin,
		dryRaw:  float64(dryRaw),
		wetRaw:  float64(wetRaw),
	}
}

func (b *SimBoard) ReadAnalog(channel int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[channel]
	if !ok {
		log.Printf("sim: read on unconfigured channel %d", channel)
		return 0
	}
	now := b.now()
	elapsed := now.Sub(ch.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	ch.last = now
	if b.pins[ch.pumpPin] {
		ch.raw -= simWetPerSec * elapsed
	} else {
		ch.raw += simDryPerSec * elapsed
	}
	if ch.raw < ch.wetRaw {
		ch.raw = ch.wetRaw
	}
	if ch.raw > ch.dryRaw {
		ch.raw = ch.dryRaw
	}
	return int(math.Round(ch.raw))
}

func (b *SimBoard) WriteDigital(pin string, high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins[pin] = high
	return nil
}

// PinState reports the current level of a relay pin.
func (b *SimBoard) PinState(pin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[pin]
}

func (b *SimBoard) Close() error { return nil }

// SimLink is always associated and reports a fixed signal level.
type SimLink struct {
	RSSI int
}

func (l *SimLink) Associate() error { return nil }
func (l *SimLink) Up() bool         { return true }
func (l *SimLink) Quality() int     { return l.RSSI }
