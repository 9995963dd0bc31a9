package entities

// PumpState indicates whether a zone's pump relay is energized.
type PumpState string

const (
	PumpOff PumpState = "OFF"
	PumpOn  PumpState = "ON"
)

// Zone is one independently sensed and actuated unit: a soil-moisture probe
// plus a pump relay. DisplayName is the routing key for inbound commands and
// must be unique on the device. Pump is the only field that changes after
// startup, and only the actuator writes it.
type Zone struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"name"`
	SensorChannel int       `json:"sensor_channel"`
	PumpPin       string    `json:"pump_pin"`
	DryRaw        int       `json:"dry_threshold"` // raw reading in dry soil
	WetRaw        int       `json:"wet_threshold"` // raw reading in wet soil
	Pump          PumpState `json:"pump_state"`
}
