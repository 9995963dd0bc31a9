package messages

// ZoneReading is one zone's slice of a telemetry document.
type ZoneReading struct {
	Name            string `json:"name"`
	RawValue        int    `json:"soilMoisture"`
	MoisturePercent int    `json:"moisturePercent"` // always clamped to 0..100
	PumpStatus      string `json:"pumpStatus"`      // "ON" / "OFF"
}

// Reading is a full telemetry sample, produced fresh on every publish and
// immutable once built. TimestampMs is device uptime, not wall-clock.
// This struct is also the multi-zone wire document.
type Reading struct {
	DeviceID        string        `json:"deviceId"`
	TimestampMs     int64         `json:"timestamp"`
	Zones           []ZoneReading `json:"zones"`
	LinkQuality     int           `json:"rssi"` // signed signal metric, dBm
	FirmwareVersion string        `json:"firmwareVersion"`
}

// FlatReading is the single-zone wire document, field for field the flat
// payload single-sensor builds publish.
type FlatReading struct {
	DeviceID        string `json:"deviceId"`
	RawValue        int    `json:"soilMoisture"`
	MoisturePercent int    `json:"moisturePercent"`
	PumpStatus      string `json:"pumpStatus"`
	TimestampMs     int64  `json:"timestamp"`
	LinkQuality     int    `json:"rssi"`
	FirmwareVersion string `json:"firmwareVersion"`
}
