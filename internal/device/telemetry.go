package device

import (
	"encoding/json"
	"fmt"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/messages"
)

// Wire-format sizing. A zone entry never exceeds this many bytes once
// encoded, so the bound scales linearly with the zone count.
const (
	encoderBaseBudget    = 192
	encoderPerZoneBudget = 128
)

// Encoder serializes readings into the telemetry wire document. The output
// is deterministic for identical inputs and bounded by a buffer sized from
// the zone count; exceeding the bound is an encoding error, not a truncation.
type Encoder struct {
	profile    config.Profile
	maxPayload int
}

func NewEncoder(profile config.Profile, zoneCount int) *Encoder {
	return &Encoder{
		profile:    profile,
		maxPayload: encoderBaseBudget + encoderPerZoneBudget*zoneCount,
	}
}

func (e *Encoder) Encode(r messages.Reading) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if e.profile == config.ProfileSingle {
		if len(r.Zones) != 1 {
			return nil, fmt.Errorf("flat telemetry needs exactly one zone, got %d", len(r.Zones))
		}
		payload, err = json.Marshal(flatten(r))
	} else {
		payload, err = json.Marshal(r)
	}
	if err != nil {
		return nil, fmt.Errorf("encode telemetry: %w", err)
	}
	if len(payload) > e.maxPayload {
		return nil, fmt.Errorf("telemetry payload is %dB, buffer is %dB", len(payload), e.maxPayload)
	}
	return payload, nil
}

// Decode is the inverse of Encode. The agent never consumes telemetry; this
// exists for round-trip verification. The flat document carries no zone
// name, so single-profile decodes yield an unnamed zone.
func (e *Encoder) Decode(payload []byte) (messages.Reading, error) {
	if e.profile == config.ProfileSingle {
		var flat messages.FlatReading
		if err := json.Unmarshal(payload, &flat); err != nil {
			return messages.Reading{}, fmt.Errorf("decode telemetry: %w", err)
		}
		return unflatten(flat), nil
	}
	var r messages.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return messages.Reading{}, fmt.Errorf("decode telemetry: %w", err)
	}
	return r, nil
}

func flatten(r messages.Reading) messages.FlatReading {
	z := r.Zones[0]
	return messages.FlatReading{
		DeviceID:        r.DeviceID,
		RawValue:        z.RawValue,
		MoisturePercent: z.MoisturePercent,
		PumpStatus:      z.PumpStatus,
		TimestampMs:     r.TimestampMs,
		LinkQuality:     r.LinkQuality,
		FirmwareVersion: r.FirmwareVersion,
	}
}

func unflatten(f messages.FlatReading) messages.Reading {
	return messages.Reading{
		DeviceID:    f.DeviceID,
		TimestampMs: f.TimestampMs,
		Zones: []messages.ZoneReading{{
			RawValue:        f.RawValue,
			MoisturePercent: f.MoisturePercent,
			PumpStatus:      f.PumpStatus,
		}},
		LinkQuality:     f.LinkQuality,
		FirmwareVersion: f.FirmwareVersion,
	}
}
