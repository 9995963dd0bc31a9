package device

import (
	"github.com/hiyakothari/Smart-Garden-System/internal/hardware"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/entities"
)

// Sampler reads raw soil values off the board. Reads have no retry and no
// error path; the board always yields a value.
type Sampler struct {
	board hardware.Board
}

func NewSampler(board hardware.Board) *Sampler {
	return &Sampler{board: board}
}

func (s *Sampler) Sample(z *entities.Zone) int {
	return s.board.ReadAnalog(z.SensorChannel)
}

// ToPercent maps a raw reading onto 0..100 using a zone's calibration
// bounds. Lower raw means wetter soil, so dry maps to 0 and wet to 100.
// Out-of-calibration readings clamp silently rather than error.
func ToPercent(raw, dry, wet int) int {
	if dry == wet {
		// degenerate calibration reads as dry
		return 0
	}
	pct := (raw - dry) * 100 / (wet - dry)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
