// Package device implements the field agent: the zone registry, sensor
// sampling, telemetry encoding, broker connectivity and command dispatch
// that run for the life of the process.
package device

import (
	"fmt"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/entities"
)

// Registry is the fixed set of zones the device manages. The array is sized
// once at startup and never grows; only each zone's pump state changes after
// that.
type Registry struct {
	zones []entities.Zone
}

func NewRegistry(zones []config.ZoneConfig) (*Registry, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("at least one zone is required")
	}
	out := make([]entities.Zone, 0, len(zones))
	names := make(map[string]struct{}, len(zones))
	for _, zc := range zones {
		if zc.Name == "" {
			return nil, fmt.Errorf("zone %q has no name", zc.ID)
		}
		if _, dup := names[zc.Name]; dup {
			return nil, fmt.Errorf("duplicate zone name %q", zc.Name)
		}
		names[zc.Name] = struct{}{}
		out = append(out, entities.Zone{
			ID:            zc.ID,
			DisplayName:   zc.Name,
			SensorChannel: zc.SensorChannel,
			PumpPin:       zc.PumpPin,
			DryRaw:        zc.DryThreshold,
			WetRaw:        zc.WetThreshold,
			Pump:          entities.PumpOff,
		})
	}
	return &Registry{zones: out}, nil
}

func (r *Registry) Count() int {
	return len(r.zones)
}

func (r *Registry) At(i int) *entities.Zone {
	return &r.zones[i]
}

// FindByName resolves a zone by its display name. Exact, case-sensitive
// match only.
func (r *Registry) FindByName(name string) (int, bool) {
	for i := range r.zones {
		if r.zones[i].DisplayName == name {
			return i, true
		}
	}
	return 0, false
}
