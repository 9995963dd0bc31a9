package mqttclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"
)

// Config carries the broker endpoint and the device identity material for a
// mutually authenticated session. The certificate files are provisioned out
// of band; their absence is a fatal startup condition.
type Config struct {
	Host           string
	Port           int
	CACertFile     string
	CertFile       string
	KeyFile        string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// BrokerURL renders the TLS connection address for paho.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("tls://%s:%d", c.Host, c.Port)
}

// NewTLSConfig loads the trust anchor and the device certificate/key pair.
func NewTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("CA certificate %s: no PEM data", caFile)
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load device certificate: %w", err)
	}
	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
