package mqttclient

import (
	"crypto/tls"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps a paho MQTT client configured for mutual TLS. Every call to
// Connect builds a fresh underlying client so each session attempt presents
// a new client identity to the broker. Reconnect policy lives in the caller,
// so paho's own auto-reconnect stays off.
type Client struct {
	cfg    *Config
	tlsCfg *tls.Config
	client mqtt.Client
}

// NewClient loads the identity material and prepares a client. It does not
// connect.
func NewClient(cfg *Config) (*Client, error) {
	tlsCfg, err := NewTLSConfig(cfg.CACertFile, cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Client{cfg: cfg, tlsCfg: tlsCfg}, nil
}

// Connect performs one handshake attempt under the given client ID.
func (c *Client) Connect(clientID string) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.BrokerURL())
	opts.SetClientID(clientID)
	opts.SetTLSConfig(c.tlsCfg)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetKeepAlive(c.cfg.KeepAlive)
	opts.SetConnectTimeout(c.cfg.ConnectTimeout)

	cl := mqtt.NewClient(opts)
	if token := cl.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", c.cfg.BrokerURL(), token.Error())
	}
	c.client = cl
	return nil
}

// Subscribe registers a handler for one topic. The handler runs on paho's
// delivery goroutine and must not block.
func (c *Client) Subscribe(topic string, qos byte, handler func(payload []byte)) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Publish sends one payload and waits for the token.
func (c *Client) Publish(topic string, qos byte, payload []byte) error {
	token := c.client.Publish(topic, qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Connected reports whether the current session is still up.
func (c *Client) Connected() bool {
	return c.client != nil && c.client.IsConnectionOpen()
}

// Disconnect tears the current session down.
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
		log.Printf("mqtt client disconnected")
	}
}
