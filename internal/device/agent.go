package device

import (
	"context"
	"log"
	"time"

	"github.com/hiyakothari/Smart-Garden-System/internal/config"
	"github.com/hiyakothari/Smart-Garden-System/internal/hardware"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/entities"
	"github.com/hiyakothari/Smart-Garden-System/internal/model/messages"
	"github.com/hiyakothari/Smart-Garden-System/pkg/dedup"
)

// loopYield keeps the loop from starving the runtime and the MQTT client's
// housekeeping between iterations.
const loopYield = 10 * time.Millisecond

// Agent is the single control task tying sampling, connectivity and command
// dispatch together. Everything it owns is mutated from Run's goroutine
// only; run-to-completion, no locks.
type Agent struct {
	deviceID        string
	firmwareVersion string
	telemetryTopic  string
	publishInterval time.Duration

	registry  *Registry
	sampler   *Sampler
	encoder   *Encoder
	actuator  *Actuator
	conn      *ConnManager
	processor *Processor
	metrics   *Metrics

	started       time.Time
	lastPublishAt time.Time
	now           func() time.Time
	sleep         func(time.Duration)
}

// NewAgent wires the full device pipeline from its collaborators. The
// session is any broker transport; the board is real GPIO or the simulator.
func NewAgent(cfg *config.Config, registry *Registry, board hardware.Board, link Link, session Session, metrics *Metrics) *Agent {
	a := &Agent{
		deviceID:        cfg.DeviceID,
		firmwareVersion: cfg.FirmwareVersion,
		telemetryTopic:  cfg.TelemetryTopic,
		publishInterval: cfg.PublishInterval,
		registry:        registry,
		sampler:         NewSampler(board),
		encoder:         NewEncoder(cfg.Profile, registry.Count()),
		metrics:         metrics,
		now:             time.Now,
		sleep:           time.Sleep,
	}
	a.actuator = NewActuator(board, nil)
	a.conn = NewConnManager(link, session, cfg.DeviceID, cfg.CommandTopic,
		cfg.LinkAttempts, cfg.LinkPollDelay, cfg.SessionRetryDelay, metrics)

	var deduper *dedup.Deduper
	if cfg.CommandDedupTTL > 0 {
		deduper = dedup.New(cfg.CommandDedupTTL, 1024)
	}
	// the status echo publishes fresh telemetry without resetting the
	// periodic schedule
	a.processor = NewProcessor(registry, a.actuator, PolicyFor(cfg), deduper, a.publishTelemetry, metrics)

	// immediate status publish once each new session is up
	a.conn.onConnect = a.publishTelemetry
	return a
}

// Run is the device's main loop: ensure the session, drain buffered
// commands, publish on the periodic schedule, yield, repeat. It returns
// when ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	a.started = a.now()
	// the periodic schedule starts now; the connect echo covers startup,
	// so the first interval must not fire a second document on its heels
	a.lastPublishAt = a.started
	log.Printf("agent starting: device=%s fw=%s zones=%d topic=%s",
		a.deviceID, a.firmwareVersion, a.registry.Count(), a.telemetryTopic)

	for {
		select {
		case <-ctx.Done():
			a.conn.Close()
			log.Printf("agent stopped")
			return ctx.Err()
		default:
		}

		if !a.conn.SessionConnected() {
			if err := a.conn.EnsureConnected(ctx); err != nil {
				// only context cancellation escapes the retry loop
				a.conn.Close()
				return err
			}
		}

		a.conn.Service()
		a.drainInbound()

		if a.now().Sub(a.lastPublishAt) >= a.publishInterval {
			a.publishTelemetry()
			a.lastPublishAt = a.now()
		}

		a.sleep(loopYield)
	}
}

// drainInbound processes at most the messages already buffered, each routed
// synchronously through the processor.
func (a *Agent) drainInbound() {
	for {
		select {
		case raw := <-a.conn.Inbound():
			a.processor.Dispatch(raw)
		default:
			return
		}
	}
}

// buildReading samples every zone and assembles one immutable document.
func (a *Agent) buildReading() messages.Reading {
	zones := make([]messages.ZoneReading, 0, a.registry.Count())
	for i := 0; i < a.registry.Count(); i++ {
		z := a.registry.At(i)
		raw := a.sampler.Sample(z)
		pct := ToPercent(raw, z.DryRaw, z.WetRaw)
		zones = append(zones, messages.ZoneReading{
			Name:            z.DisplayName,
			RawValue:        raw,
			MoisturePercent: pct,
			PumpStatus:      string(z.Pump),
		})
		a.metrics.SetZone(z.DisplayName, pct, z.Pump == entities.PumpOn)
	}
	return messages.Reading{
		DeviceID:        a.deviceID,
		TimestampMs:     a.now().Sub(a.started).Milliseconds(),
		Zones:           zones,
		LinkQuality:     a.conn.LinkQuality(),
		FirmwareVersion: a.firmwareVersion,
	}
}

// publishTelemetry samples, encodes and pushes one document. Failures are
// logged and dropped; the next cycle supersedes them.
func (a *Agent) publishTelemetry() {
	reading := a.buildReading()
	payload, err := a.encoder.Encode(reading)
	if err != nil {
		log.Printf("telemetry encode: %v", err)
		a.metrics.IncPublishFailure()
		return
	}
	if a.conn.Publish(a.telemetryTopic, payload) {
		a.metrics.IncPublish()
	} else {
		a.metrics.IncPublishFailure()
	}
	a.metrics.SetLinkQuality(reading.LinkQuality)
}
