package device

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/messages"
)

func TestEncodeFlatRoundTrip(t *testing.T) {
	enc := NewEncoder(config.ProfileSingle, 1)
	reading := messages.Reading{
		DeviceID:    "garden_sensor_01",
		TimestampMs: 123456,
		Zones: []messages.ZoneReading{
			{RawValue: 1500, MoisturePercent: 50, PumpStatus: "OFF"},
		},
		LinkQuality:     -61,
		FirmwareVersion: "1.0.0",
	}

	payload, err := enc.Encode(reading)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"soilMoisture":1500`)
	assert.Contains(t, string(payload), `"rssi":-61`)
	assert.NotContains(t, string(payload), `"zones"`, "single profile publishes the flat document")

	decoded, err := enc.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, reading, decoded)
}

func TestEncodeFlatIsDeterministic(t *testing.T) {
	enc := NewEncoder(config.ProfileSingle, 1)
	reading := messages.Reading{
		DeviceID:        "d",
		Zones:           []messages.ZoneReading{{RawValue: 1, MoisturePercent: 99, PumpStatus: "ON"}},
		FirmwareVersion: "1.0.0",
	}
	a, err := enc.Encode(reading)
	require.NoError(t, err)
	b, err := enc.Encode(reading)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeNestedRoundTrip(t *testing.T) {
	enc := NewEncoder(config.ProfileMulti, 3)
	reading := messages.Reading{
		DeviceID:    "garden_sensor_01",
		TimestampMs: 8910,
		Zones: []messages.ZoneReading{
			{Name: "Vegetables", RawValue: 2500, MoisturePercent: 0, PumpStatus: "OFF"},
			{Name: "Flowers", RawValue: 1650, MoisturePercent: 50, PumpStatus: "ON"},
			{Name: "Herbs", RawValue: 500, MoisturePercent: 100, PumpStatus: "OFF"},
		},
		LinkQuality:     -48,
		FirmwareVersion: "1.0.0",
	}

	payload, err := enc.Encode(reading)
	require.NoError(t, err)

	decoded, err := enc.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, reading, decoded, "clamped values survive the round trip")

	// zone order on the wire matches registry order
	var doc struct {
		Zones []struct {
			Name string `json:"name"`
		} `json:"zones"`
	}
	require.NoError(t, json.Unmarshal(payload, &doc))
	require.Len(t, doc.Zones, 3)
	assert.Equal(t, "Vegetables", doc.Zones[0].Name)
	assert.Equal(t, "Herbs", doc.Zones[2].Name)
}

func TestDecodeFlatDropsZoneName(t *testing.T) {
	enc := NewEncoder(config.ProfileSingle, 1)
	payload, err := enc.Encode(messages.Reading{
		DeviceID: "d",
		Zones:    []messages.ZoneReading{{Name: "Garden", RawValue: 1200}},
	})
	require.NoError(t, err)

	decoded, err := enc.Decode(payload)
	require.NoError(t, err)
	require.Len(t, decoded.Zones, 1)
	assert.Empty(t, decoded.Zones[0].Name, "the flat document carries no zone name")
	assert.Equal(t, 1200, decoded.Zones[0].RawValue)
}

func TestEncodeFlatRequiresOneZone(t *testing.T) {
	enc := NewEncoder(config.ProfileSingle, 1)
	_, err := enc.Encode(messages.Reading{DeviceID: "d"})
	assert.Error(t, err)
}

func TestEncodeBoundedBuffer(t *testing.T) {
	// the buffer is sized for one zone; a document that outgrows it is an
	// error, never a truncation
	enc := NewEncoder(config.ProfileMulti, 1)
	reading := messages.Reading{
		DeviceID:        strings.Repeat("x", 400),
		Zones:           []messages.ZoneReading{{Name: "Garden"}},
		FirmwareVersion: "1.0.0",
	}
	_, err := enc.Encode(reading)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer")
}
