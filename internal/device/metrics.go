package device

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the device's prometheus surface. A nil *Metrics is valid and
// turns every recording call into a no-op, so wiring stays optional.
type Metrics struct {
	registry *prometheus.Registry

	publishes       prometheus.Counter
	publishFailures prometheus.Counter
	commands        *prometheus.CounterVec
	commandsDropped prometheus.Counter
	sessionDrops    prometheus.Counter
	moisture        *prometheus.GaugeVec
	pumpOn          *prometheus.GaugeVec
	linkQuality     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_publishes_total",
			Help: "Telemetry documents published to the broker.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_publish_failures_total",
			Help: "Telemetry publishes that were dropped.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garden_commands_total",
			Help: "Inbound commands dispatched, by action.",
		}, []string{"action"}),
		commandsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_commands_dropped_total",
			Help: "Inbound commands discarded before actuation.",
		}),
		sessionDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_session_drops_total",
			Help: "Broker sessions lost after being established.",
		}),
		moisture: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "garden_moisture_percent",
			Help: "Last sampled moisture percent, by zone.",
		}, []string{"zone"}),
		pumpOn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "garden_pump_on",
			Help: "Pump relay state, by zone (1 on, 0 off).",
		}, []string{"zone"}),
		linkQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garden_link_quality_dbm",
			Help: "Wireless signal level at last publish.",
		}),
	}
	m.registry.MustRegister(
		m.publishes, m.publishFailures, m.commands, m.commandsDropped,
		m.sessionDrops, m.moisture, m.pumpOn, m.linkQuality,
	)
	return m
}

// Serve exposes /metrics and /healthz on addr in the background.
func (m *Metrics) Serve(addr string) {
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}()
}

func (m *Metrics) IncPublish() {
	if m != nil {
		m.publishes.Inc()
	}
}

func (m *Metrics) IncPublishFailure() {
	if m != nil {
		m.publishFailures.Inc()
	}
}

func (m *Metrics) IncCommand(action string) {
	if m != nil {
		m.commands.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncCommandDropped() {
	if m != nil {
		m.commandsDropped.Inc()
	}
}

func (m *Metrics) IncSessionDrop() {
	if m != nil {
		m.sessionDrops.Inc()
	}
}

func (m *Metrics) SetZone(name string, percent int, pumpOn bool) {
	if m == nil {
		return
	}
	m.moisture.WithLabelValues(name).Set(float64(percent))
	v := 0.0
	if pumpOn {
		v = 1.0
	}
	m.pumpOn.WithLabelValues(name).Set(v)
}

func (m *Metrics) SetLinkQuality(dbm int) {
	if m != nil {
		m.linkQuality.Set(float64(dbm))
	}
}
