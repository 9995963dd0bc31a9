package messages

import "encoding/json"

// Action is the closed set of instructions the device understands. Strings
// outside the set decode to ActionUnknown so dispatch can handle them as an
// explicit case instead of a fallthrough.
type Action int

const (
	ActionUnknown Action = iota
	ActionWaterOn
	ActionWaterOff
	ActionStatus
	ActionAllOn
	ActionAllOff
)

var actionByName = map[string]Action{
	"WATER_ON":  ActionWaterOn,
	"WATER_OFF": ActionWaterOff,
	"STATUS":    ActionStatus,
	"ALL_ON":    ActionAllOn,
	"ALL_OFF":   ActionAllOff,
}

var actionNames = map[Action]string{
	ActionWaterOn:  "WATER_ON",
	ActionWaterOff: "WATER_OFF",
	ActionStatus:   "STATUS",
	ActionAllOn:    "ALL_ON",
	ActionAllOff:   "ALL_OFF",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "UNKNOWN"
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any JSON string; unrecognized values become
// ActionUnknown rather than a decode error. A non-string action is a
// malformed payload.
func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = actionByName[s]
	return nil
}

// Command is one inbound actuation instruction. It lives only for the
// duration of a single dispatch. Zone is required only by the multi-zone
// profile. Duration is an auto-shutoff in seconds; the timed path keys on
// the field being present, so an explicit zero means an immediate off pulse.
type Command struct {
	Action   Action `json:"action"`
	Zone     string `json:"zone,omitempty"`
	Duration *int   `json:"duration,omitempty"`
}
