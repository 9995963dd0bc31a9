package device

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/messages"
	"github.com/hiyakothari/Smart-Garden-System/pkg/dedup"
)

// DispatchPolicy captures the behavioral differences between the single- and
// multi-zone device profiles. They are independent switches rather than a
// profile branch so either behavior can be selected and tested on its own.
type DispatchPolicy struct {
	// ResolveZones routes WATER_ON/WATER_OFF by the command's zone name.
	// Off, the device has one zone and the name is ignored.
	ResolveZones bool
	// AbortOnUnknownZone drops the whole dispatch, status echo included,
	// when the named zone does not exist.
	AbortOnUnknownZone bool
	// PublishOnUnknownAction still echoes status after a command whose
	// action the device does not recognize.
	PublishOnUnknownAction bool
}

// PolicyFor derives the default switches for a profile.
func PolicyFor(cfg *config.Config) DispatchPolicy {
	return DispatchPolicy{
		ResolveZones:           cfg.Profile == config.ProfileMulti,
		AbortOnUnknownZone:     cfg.AbortOnUnknownZone,
		PublishOnUnknownAction: cfg.PublishOnUnknownAction,
	}
}

// Processor decodes inbound command payloads and drives actuation. Dispatch
// runs on the agent goroutine only.
type Processor struct {
	registry *Registry
	actuator *Actuator
	policy   DispatchPolicy
	deduper  *dedup.Deduper // nil disables redelivery suppression
	publish  func()         // status echo after a handled command
	metrics  *Metrics
}

func NewProcessor(registry *Registry, actuator *Actuator, policy DispatchPolicy, deduper *dedup.Deduper, publish func(), metrics *Metrics) *Processor {
	return &Processor{
		registry: registry,
		actuator: actuator,
		policy:   policy,
		deduper:  deduper,
		publish:  publish,
		metrics:  metrics,
	}
}

// Dispatch handles one raw command payload end to end: parse, resolve,
// actuate, echo status. Malformed payloads are discarded with no side
// effects at all.
func (p *Processor) Dispatch(raw []byte) {
	if p.deduper != nil {
		sum := sha256.Sum256(raw)
		if !p.deduper.ShouldProcess(hex.EncodeToString(sum[:])) {
			log.Printf("duplicate command payload dropped")
			p.metrics.IncCommandDropped()
			return
		}
	}

	var cmd messages.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		log.Printf("bad command payload: %v", err)
		p.metrics.IncCommandDropped()
		return
	}
	p.metrics.IncCommand(cmd.Action.String())

	switch cmd.Action {
	case messages.ActionUnknown:
		log.Printf("unknown action in command %s", raw)
		if !p.policy.PublishOnUnknownAction {
			return
		}

	case messages.ActionStatus:
		log.Printf("status requested")

	case messages.ActionAllOn, messages.ActionAllOff:
		on := cmd.Action == messages.ActionAllOn
		for i := 0; i < p.registry.Count(); i++ {
			p.actuator.SetPump(p.registry.At(i), on)
		}

	case messages.ActionWaterOn, messages.ActionWaterOff:
		idx, found := p.resolveZone(cmd.Zone)
		if !found {
			if p.policy.AbortOnUnknownZone {
				log.Printf("zone %q not found; command dropped", cmd.Zone)
				p.metrics.IncCommandDropped()
				return
			}
			log.Printf("zone %q not found; no actuation", cmd.Zone)
			break
		}
		zone := p.registry.At(idx)
		switch {
		case cmd.Action == messages.ActionWaterOff:
			p.actuator.SetPump(zone, false)
		case cmd.Duration != nil:
			secs := *cmd.Duration
			if secs < 0 {
				secs = 0
			}
			p.actuator.SetPumpTimed(zone, time.Duration(secs)*time.Second)
		default:
			p.actuator.SetPump(zone, true)
		}
	}

	// every handled command is answered with one fresh status publish
	// reflecting the post-actuation state
	if p.publish != nil {
		p.publish()
	}
}

func (p *Processor) resolveZone(name string) (int, bool) {
	if !p.policy.ResolveZones {
		return 0, true
	}
	return p.registry.FindByName(name)
}
