package device

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiyakothari/Smart-Garden-System/internal/model/entities"
	"github.com/hiyakothari/Smart-Garden-System/pkg/dedup"
)

// fakeBoard records relay writes and serves canned analog values.
type fakeBoard struct {
	mu     sync.Mutex
	raw    map[int]int
	pins   map[string]bool
	writes []string
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{raw: make(map[int]int), pins: make(map[string]bool)}
}

func (b *fakeBoard) ReadAnalog(channel int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.raw[channel]
}

func (b *fakeBoard) WriteDigital(pin string, high bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins[pin] = high
	state := pin + ":off"
	if high {
		state = pin + ":on"
	}
	b.writes = append(b.writes, state)
	return nil
}

func (b *fakeBoard) PinState(pin string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[pin]
}

func (b *fakeBoard) Writes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.writes))
	copy(out, b.writes)
	return out
}

func (b *fakeBoard) Close() error { return nil }

// testDispatcher bundles a processor with everything the tests observe.
type testDispatcher struct {
	reg       *Registry
	board     *fakeBoard
	proc      *Processor
	slept     []time.Duration
	published int
	// pump states captured at the moment of each status echo
	snapshots [][]entities.PumpState
}

func newTestDispatcher(t *testing.T, policy DispatchPolicy, deduper *dedup.Deduper) *testDispatcher {
	t.Helper()
	d := &testDispatcher{reg: newTestRegistry(t), board: newFakeBoard()}
	act := NewActuator(d.board, func(dur time.Duration) {
		d.slept = append(d.slept, dur)
	})
	d.proc = NewProcessor(d.reg, act, policy, deduper, func() {
		d.published++
		snap := make([]entities.PumpState, d.reg.Count())
		for i := 0; i < d.reg.Count(); i++ {
			snap[i] = d.reg.At(i).Pump
		}
		d.snapshots = append(d.snapshots, snap)
	}, nil)
	return d
}

func multiPolicy() DispatchPolicy {
	return DispatchPolicy{ResolveZones: true, AbortOnUnknownZone: true, PublishOnUnknownAction: true}
}

func singlePolicy() DispatchPolicy {
	return DispatchPolicy{PublishOnUnknownAction: true}
}

func TestDispatchTimedWaterOn(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Herbs","duration":3}`))

	// pump went on, held for exactly the commanded duration, then off
	assert.Equal(t, []string{"19:on", "19:off"}, d.board.Writes())
	assert.Equal(t, []time.Duration{3 * time.Second}, d.slept)
	assert.False(t, d.board.PinState("19"))

	// exactly one status echo, reflecting the post-shutoff state
	require.Equal(t, 1, d.published)
	assert.Equal(t, []entities.PumpState{entities.PumpOff, entities.PumpOff, entities.PumpOff}, d.snapshots[0])

	// no other zone was touched
	assert.False(t, d.board.PinState("5"))
	assert.False(t, d.board.PinState("18"))
}

func TestDispatchZeroDurationPulses(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	// a present duration selects the timed path even at zero: the pump
	// pulses off immediately instead of latching on
	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Herbs","duration":0}`))

	assert.Equal(t, []string{"19:on", "19:off"}, d.board.Writes())
	assert.Equal(t, []time.Duration{0}, d.slept)
	assert.False(t, d.board.PinState("19"))
	assert.Equal(t, 1, d.published)
}

func TestDispatchNegativeDurationFloorsToZero(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Herbs","duration":-5}`))

	assert.Equal(t, []string{"19:on", "19:off"}, d.board.Writes())
	assert.Equal(t, []time.Duration{0}, d.slept)
	assert.False(t, d.board.PinState("19"))
}

func TestDispatchWaterOnWithoutDuration(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Flowers"}`))

	assert.True(t, d.board.PinState("18"))
	assert.Equal(t, entities.PumpOn, d.reg.At(1).Pump)
	assert.Empty(t, d.slept)
	assert.Equal(t, 1, d.published)

	d.proc.Dispatch([]byte(`{"action":"WATER_OFF","zone":"Flowers"}`))
	assert.False(t, d.board.PinState("18"))
	assert.Equal(t, entities.PumpOff, d.reg.At(1).Pump)
	assert.Equal(t, 2, d.published)
}

func TestDispatchAllOnAllOff(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"ALL_ON"}`))
	require.Equal(t, 1, d.published)
	assert.Equal(t, []entities.PumpState{entities.PumpOn, entities.PumpOn, entities.PumpOn}, d.snapshots[0],
		"the single echo sees every zone on, no partial state")

	d.proc.Dispatch([]byte(`{"action":"ALL_OFF"}`))
	require.Equal(t, 2, d.published)
	assert.Equal(t, []entities.PumpState{entities.PumpOff, entities.PumpOff, entities.PumpOff}, d.snapshots[1])
}

func TestDispatchStatusOnly(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"STATUS"}`))

	assert.Empty(t, d.board.Writes(), "STATUS never actuates")
	assert.Equal(t, 1, d.published)
}

func TestDispatchMalformedPayload(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	for _, payload := range []string{
		`{"action":"WATER_ON"`, // truncated
		`not json at all`,
		`{"action":42}`, // non-string action
		``,
	} {
		d.proc.Dispatch([]byte(payload))
	}

	assert.Empty(t, d.board.Writes())
	assert.Equal(t, 0, d.published)
}

func TestDispatchUnknownZoneAborts(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Unknown"}`))
	d.proc.Dispatch([]byte(`{"action":"WATER_ON"}`)) // zone missing entirely

	assert.Empty(t, d.board.Writes())
	assert.Equal(t, 0, d.published)
}

func TestDispatchUnknownActionStillEchoes(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_MAYBE"}`))
	assert.Empty(t, d.board.Writes())
	assert.Equal(t, 1, d.published)

	d.proc.Dispatch([]byte(`{"zone":"Herbs"}`)) // action absent
	assert.Empty(t, d.board.Writes())
	assert.Equal(t, 2, d.published)
}

func TestDispatchUnknownActionSilentWhenDisabled(t *testing.T) {
	policy := multiPolicy()
	policy.PublishOnUnknownAction = false
	d := newTestDispatcher(t, policy, nil)

	d.proc.Dispatch([]byte(`{"action":"WATER_MAYBE"}`))
	assert.Empty(t, d.board.Writes())
	assert.Equal(t, 0, d.published)
}

func TestDispatchSingleProfileIgnoresZoneField(t *testing.T) {
	d := newTestDispatcher(t, singlePolicy(), nil)

	// the single-sensor firmware has no zone routing: any WATER_ON hits
	// the only zone, whatever the payload names
	d.proc.Dispatch([]byte(`{"action":"WATER_ON","zone":"Nonexistent"}`))

	assert.True(t, d.board.PinState("5"))
	assert.Equal(t, entities.PumpOn, d.reg.At(0).Pump)
	assert.Equal(t, 1, d.published)
}

func TestDispatchDropsQoS1Redelivery(t *testing.T) {
	d := newTestDispatcher(t, multiPolicy(), dedup.New(time.Minute, 16))

	payload := []byte(`{"action":"WATER_ON","zone":"Herbs"}`)
	d.proc.Dispatch(payload)
	d.proc.Dispatch(payload) // broker redelivery, identical bytes

	assert.Equal(t, []string{"19:on"}, d.board.Writes(), "redelivery must not double-fire")
	assert.Equal(t, 1, d.published)
}
