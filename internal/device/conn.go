package device

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anggasct/fluo"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Connectivity lifecycle states. Once the link is up there is no path back
// below it: link loss while a session is established surfaces as session
// loss on the next keep-alive check.
const (
	stateLinkDown          = "link_down"
	stateLinkUp            = "link_up"
	stateSessionConnecting = "session_connecting"
	stateSessionConnected  = "session_connected"
)

const (
	evLinkUp       = "link_up"
	evSessionStart = "session_start"
	evSessionUp    = "session_up"
	evSessionLost  = "session_lost"
)

// Link is the wireless association underneath the broker session.
type Link interface {
	Associate() error
	Up() bool
	Quality() int
}

// Session is one authenticated broker connection. Each Connect presents a
// fresh client identity.
type Session interface {
	Connect(clientID string) error
	Subscribe(topic string, qos byte, handler func(payload []byte)) error
	Publish(topic string, qos byte, payload []byte) error
	Connected() bool
	Disconnect()
}

// ConnManager owns the link and session lifecycle. All methods except the
// internal subscribe handler run on the agent goroutine.
type ConnManager struct {
	link     Link
	session  Session
	machine  fluo.Machine
	deviceID string

	commandTopic string
	inbound      chan []byte

	linkAttempts  int
	linkPollDelay time.Duration
	retryDelay    time.Duration
	sleep         func(time.Duration)

	// runs right after the session comes up, after the command
	// subscription; the agent points this at an immediate status publish
	onConnect func()

	metrics *Metrics
}

func NewConnManager(link Link, session Session, deviceID, commandTopic string, linkAttempts int, linkPollDelay, retryDelay time.Duration, metrics *Metrics) *ConnManager {
	c := &ConnManager{
		link:          link,
		session:       session,
		machine:       newConnMachine(),
		deviceID:      deviceID,
		commandTopic:  commandTopic,
		inbound:       make(chan []byte, 32),
		linkAttempts:  linkAttempts,
		linkPollDelay: linkPollDelay,
		retryDelay:    retryDelay,
		sleep:         time.Sleep,
		metrics:       metrics,
	}
	return c
}

// newConnMachine builds the lifecycle machine. The permissive link_down to
// session_connecting edge lets the device proceed after the bounded link
// wait runs out; session attempts then fail and retry on their own.
func newConnMachine() fluo.Machine {
	b := fluo.NewMachine()
	b.State(stateLinkDown).Initial().
		To(stateLinkUp).On(evLinkUp).
		To(stateSessionConnecting).On(evSessionStart)
	b.State(stateLinkUp).
		To(stateSessionConnecting).On(evSessionStart)
	b.State(stateSessionConnecting).
		To(stateSessionConnected).On(evSessionUp)
	b.State(stateSessionConnected).
		To(stateSessionConnecting).On(evSessionLost)
	m := b.Build().CreateInstance()
	if err := m.Start(); err != nil {
		// the machine is static; a start failure is a programming error
		panic(fmt.Sprintf("connectivity machine: %v", err))
	}
	return m
}

// State exposes the current lifecycle state for logs and tests.
func (c *ConnManager) State() string {
	return c.machine.CurrentState()
}

// SessionConnected gates every publish attempt.
func (c *ConnManager) SessionConnected() bool {
	return c.machine.IsInState(stateSessionConnected)
}

// Inbound hands buffered command payloads to the agent loop.
func (c *ConnManager) Inbound() <-chan []byte {
	return c.inbound
}

func (c *ConnManager) LinkQuality() int {
	return c.link.Quality()
}

// EnsureConnected drives the machine to session_connected. It blocks through
// the bounded link wait and the unbounded fixed-interval session retry, and
// returns early only when ctx is cancelled.
func (c *ConnManager) EnsureConnected(ctx context.Context) error {
	if c.machine.IsInState(stateLinkDown) {
		c.acquireLink()
	}
	c.machine.SendEvent(evSessionStart, nil)

	bo := backoff.WithContext(backoff.NewConstantBackOff(c.retryDelay), ctx)
	if err := backoff.Retry(c.connectOnce, bo); err != nil {
		return fmt.Errorf("session connect: %w", err)
	}
	c.machine.SendEvent(evSessionUp, nil)
	if c.onConnect != nil {
		c.onConnect()
	}
	return nil
}

// acquireLink associates and polls with a fixed delay, a bounded number of
// times. Running out of attempts is a soft failure: the device proceeds and
// lets session connects fail and retry instead of halting.
func (c *ConnManager) acquireLink() {
	log.Printf("acquiring link")
	if err := c.link.Associate(); err != nil {
		log.Printf("link associate: %v", err)
	}
	for attempt := 0; attempt < c.linkAttempts; attempt++ {
		if c.link.Up() {
			log.Printf("link up (rssi %d dBm)", c.link.Quality())
			c.machine.SendEvent(evLinkUp, nil)
			return
		}
		c.sleep(c.linkPollDelay)
	}
	log.Printf("link still down after %d polls; continuing anyway", c.linkAttempts)
}

// connectOnce is a single session attempt: fresh client identity, mutual TLS
// handshake, command subscription.
func (c *ConnManager) connectOnce() error {
	clientID := fmt.Sprintf("garden-%s-%s", c.deviceID, uuid.NewString()[:8])
	if err := c.session.Connect(clientID); err != nil {
		log.Printf("session connect failed: %v; retrying in %s", err, c.retryDelay)
		return err
	}
	if err := c.session.Subscribe(c.commandTopic, 1, c.enqueue); err != nil {
		log.Printf("command subscribe failed: %v; retrying in %s", err, c.retryDelay)
		c.session.Disconnect()
		return err
	}
	log.Printf("session up as %s, subscribed to %s", clientID, c.commandTopic)
	return nil
}

// enqueue runs on the MQTT client's delivery goroutine. It copies the
// payload onto the agent's queue and never touches device state.
func (c *ConnManager) enqueue(payload []byte) {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	select {
	case c.inbound <- buf:
	default:
		log.Printf("inbound queue full; command dropped")
	}
}

// Service must run every loop iteration. It is the keep-alive check: a
// session that died since the last iteration flips the machine back to
// session_connecting so the next iteration reconnects.
func (c *ConnManager) Service() {
	if c.machine.IsInState(stateSessionConnected) && !c.session.Connected() {
		log.Printf("session lost; will reconnect")
		c.machine.SendEvent(evSessionLost, nil)
		c.metrics.IncSessionDrop()
	}
}

// Publish sends one payload if, and only if, the session is connected. A
// failed publish is logged and dropped; the next periodic cycle supersedes
// it with fresh data.
func (c *ConnManager) Publish(topic string, payload []byte) bool {
	if !c.SessionConnected() {
		log.Printf("publish skipped: connectivity is %s", c.machine.CurrentState())
		return false
	}
	if err := c.session.Publish(topic, 0, payload); err != nil {
		log.Printf("publish to %s failed: %v", topic, err)
		return false
	}
	return true
}

// Close tears the session down on shutdown.
func (c *ConnManager) Close() {
	c.session.Disconnect()
}
