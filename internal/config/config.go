// Package config assembles the device agent's build-time configuration from
// the environment plus an optional zones file. Nothing here is discovered at
// runtime; the zone table is fixed for the life of the process.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Profile selects which device generation's behavior to follow. The two
// generations differ in topic naming and in how dispatch treats unknown
// zones; everything else is shared.
type Profile string

const (
	ProfileSingle Profile = "single"
	ProfileMulti  Profile = "multi"
)

// ZoneConfig mirrors one entry of the zones file.
type ZoneConfig struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	SensorChannel int    `json:"sensor_channel"`
	PumpPin       string `json:"pump_pin"`
	DryThreshold  int    `json:"dry_threshold"`
	WetThreshold  int    `json:"wet_threshold"`
}

type Config struct {
	DeviceID        string
	FirmwareVersion string

	BrokerHost string
	BrokerPort int
	CACertFile string
	CertFile   string
	KeyFile    string

	TelemetryTopic string
	CommandTopic   string

	Profile Profile
	Zones   []ZoneConfig

	PublishInterval   time.Duration
	LinkIface         string
	LinkAttempts      int
	LinkPollDelay     time.Duration
	SessionRetryDelay time.Duration
	CommandDedupTTL   time.Duration

	// Dispatch divergences between the two profiles, kept as explicit
	// switches with profile-derived defaults.
	AbortOnUnknownZone     bool
	PublishOnUnknownAction bool

	MetricsAddr string
	Hardware    string // "gpio" or "sim"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// defaultZones is the built-in zone table: one probe for the single
// profile, the three named beds for the multi profile.
func defaultZones(p Profile) []ZoneConfig {
	if p == ProfileMulti {
		return []ZoneConfig{
			{ID: "zone1", Name: "Vegetables", SensorChannel: 0, PumpPin: "5", DryThreshold: 2000, WetThreshold: 1000},
			{ID: "zone2", Name: "Flowers", SensorChannel: 1, PumpPin: "18", DryThreshold: 2200, WetThreshold: 1100},
			{ID: "zone3", Name: "Herbs", SensorChannel: 2, PumpPin: "19", DryThreshold: 1800, WetThreshold: 900},
		}
	}
	return []ZoneConfig{
		{ID: "zone1", Name: "Garden", SensorChannel: 0, PumpPin: "5", DryThreshold: 3000, WetThreshold: 1000},
	}
}

func loadZonesFile(path string) ([]ZoneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones config: %w", err)
	}
	var zones []ZoneConfig
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("parse zones config %s: %w", path, err)
	}
	return zones, nil
}

// Load builds the configuration from the environment. It validates only what
// cannot be validated later: the broker endpoint, the profile and the zone
// table shape. Identity material is checked where it is loaded.
func Load() (*Config, error) {
	profile := Profile(getenv("PROFILE", string(ProfileSingle)))
	if profile != ProfileSingle && profile != ProfileMulti {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}

	cfg := &Config{
		DeviceID:        getenv("DEVICE_ID", "garden_sensor_01"),
		FirmwareVersion: getenv("FIRMWARE_VERSION", "1.0.0"),

		BrokerHost: getenv("MQTT_HOST", ""),
		BrokerPort: getenvInt("MQTT_PORT", 8883),
		CACertFile: getenv("CA_CERT_FILE", "/etc/garden/AmazonRootCA1.pem"),
		CertFile:   getenv("DEVICE_CERT_FILE", "/etc/garden/certificate.pem.crt"),
		KeyFile:    getenv("DEVICE_KEY_FILE", "/etc/garden/private.pem.key"),

		TelemetryTopic: getenv("TELEMETRY_TOPIC", ""),
		CommandTopic:   getenv("COMMAND_TOPIC", "garden/commands"),

		Profile: profile,

		PublishInterval:   getenvDuration("PUBLISH_INTERVAL", 60*time.Second),
		LinkIface:         getenv("LINK_IFACE", "wlan0"),
		LinkAttempts:      getenvInt("LINK_ATTEMPTS", 30),
		LinkPollDelay:     getenvDuration("LINK_POLL_DELAY", 500*time.Millisecond),
		SessionRetryDelay: getenvDuration("SESSION_RETRY_DELAY", 5*time.Second),
		CommandDedupTTL:   getenvDuration("COMMAND_DEDUP_TTL", 30*time.Second),

		AbortOnUnknownZone:     getenvBool("ABORT_ON_UNKNOWN_ZONE", profile == ProfileMulti),
		PublishOnUnknownAction: getenvBool("PUBLISH_ON_UNKNOWN_ACTION", true),

		MetricsAddr: getenv("METRICS_ADDR", ""),
		Hardware:    getenv("HARDWARE", "gpio"),
	}

	if cfg.BrokerHost == "" {
		return nil, fmt.Errorf("MQTT_HOST is required")
	}

	if cfg.TelemetryTopic == "" {
		// the two generations never unified these
		if profile == ProfileMulti {
			cfg.TelemetryTopic = "garden/telemetry/multi"
		} else {
			cfg.TelemetryTopic = "garden/telemetry"
		}
	}

	if path := getenv("ZONES_CONFIG_PATH", ""); path != "" {
		zones, err := loadZonesFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Zones = zones
	} else {
		cfg.Zones = defaultZones(profile)
	}
	if len(cfg.Zones) == 0 {
		return nil, fmt.Errorf("zone table is empty")
	}
	if profile == ProfileSingle && len(cfg.Zones) != 1 {
		return nil, fmt.Errorf("single profile requires exactly one zone, got %d", len(cfg.Zones))
	}

	return cfg, nil
}
