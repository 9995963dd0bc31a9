package device

import (
	"log"
	"time"

	"github.com/hiyakothari/Smart-Garden-System/internal/hardware"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/entities"
)

// Actuator owns every pump write; nothing else mutates a zone's pump state.
type Actuator struct {
	board hardware.Board
	sleep func(time.Duration)
}

func NewActuator(board hardware.Board, sleep func(time.Duration)) *Actuator {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Actuator{board: board, sleep: sleep}
}

// SetPump writes the relay and records the new state on the zone. Idempotent.
// The relay layer has no fault feedback path, so write errors are logged and
// the commanded state is recorded regardless.
func (a *Actuator) SetPump(z *entities.Zone, on bool) {
	state := entities.PumpOff
	if on {
		state = entities.PumpOn
	}
	if err := a.board.WriteDigital(z.PumpPin, on); err != nil {
		log.Printf("pump %s write: %v", z.DisplayName, err)
	}
	z.Pump = state
	log.Printf("%s pump %s", z.DisplayName, state)
}

// SetPumpTimed holds the pump on for d and shuts it off before returning.
// The wait is a full blocking sleep: inbound commands, the periodic publish
// and session keep-alive all stall until it completes. There is no
// cancellation once the hold starts.
func (a *Actuator) SetPumpTimed(z *entities.Zone, d time.Duration) {
	a.SetPump(z, true)
	a.sleep(d)
	a.SetPump(z, false)
}
