package hardware

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// WifiLink reports the state of the device's wireless interface. Association
// itself belongs to wpa_supplicant; what the agent needs is whether the
// broker endpoint is reachable, so Up probes it over TCP.
type WifiLink struct {
	Iface     string
	ProbeAddr string // host:port of the broker
	Timeout   time.Duration
}

func NewWifiLink(iface, probeAddr string) *WifiLink {
	return &WifiLink{Iface: iface, ProbeAddr: probeAddr, Timeout: 3 * time.Second}
}

func (l *WifiLink) Associate() error { return nil }

func (l *WifiLink) Up() bool {
	conn, err := net.DialTimeout("tcp", l.ProbeAddr, l.Timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Quality reads the interface's signal level out of /proc/net/wireless.
// Wired or unknown interfaces report 0.
func (l *WifiLink) Quality() int {
	data, err := os.ReadFile("/proc/net/wireless")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || strings.TrimSuffix(fields[0], ":") != l.Iface {
			continue
		}
		level := strings.TrimSuffix(fields[3], ".")
		if v, err := strconv.ParseFloat(level, 64); err == nil {
			return int(v)
		}
	}
	return 0
}
