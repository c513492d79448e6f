package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/headlamp/internal/logic"
)

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	BufferSize  int // messages held while disconnected
}

// RealPublisher publishes to an actual MQTT broker and receives remote
// commands. Messages published while disconnected are buffered and replayed
// on reconnect.
type RealPublisher struct {
	client   paho.Client
	topics   Topics
	commands chan Command
	now      func() time.Time
	log      *logrus.Entry

	mu            sync.Mutex
	buf           *ringBuffer
	ready         bool // buffer drained since the last connect
	everConnected bool
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. It never blocks on the broker; connection is retried.
func NewRealPublisher(opts Options) *RealPublisher {
	p := newRealPublisher(opts)
	p.client.Connect()
	return p
}

func newRealPublisher(opts Options) *RealPublisher {
	p := &RealPublisher{
		topics:   TopicsFor(opts.TopicPrefix),
		commands: make(chan Command, 8),
		now:      time.Now,
		log:      logrus.WithFields(logrus.Fields{"component": "mqtt", "broker": opts.Broker}),
		buf:      newRingBuffer(opts.BufferSize),
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.topics.System, string(WillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(co)
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.log.Info("connected")

	token := c.Subscribe(p.topics.Command, 1, p.handleCommand)
	if !token.WaitTimeout(5 * time.Second) {
		p.log.WithField("topic", p.topics.Command).Warn("subscribe timeout")
	} else if err := token.Error(); err != nil {
		p.log.WithError(err).Warn("subscribe to command topic failed")
	}

	p.mu.Lock()
	reconnect := p.everConnected
	p.everConnected = true
	p.mu.Unlock()

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err := p.send(queuedMsg{topic: p.topics.System, payload: payload, qos: 1}); err != nil {
			p.log.WithError(err).Warn("reconnected event failed")
		}
	}

	// Publishes keep buffering until a drain finds the buffer empty, so
	// nothing sent live overtakes an older buffered message.
	for {
		p.mu.Lock()
		if !c.IsConnectionOpen() {
			p.mu.Unlock()
			return
		}
		msgs, dropped := p.buf.drain()
		if len(msgs) == 0 {
			p.ready = true
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		p.log.WithFields(logrus.Fields{"count": len(msgs), "dropped": dropped}).Info("replaying buffered messages")
		for _, m := range msgs {
			if err := p.send(m); err != nil {
				p.log.WithError(err).Warn("replay failed")
			}
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.WithError(err).Warn("connection lost")
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
}

func (p *RealPublisher) handleCommand(_ paho.Client, m paho.Message) {
	click, err := ParseCommand(m.Payload())
	if err != nil {
		p.log.WithError(err).Warn("ignoring command")
		return
	}
	select {
	case p.commands <- Command{Click: click, Received: p.now()}:
	default:
		p.log.WithField("click", click).Warn("command queue full, dropping")
	}
}

// Publish sends a lamp event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(queuedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(queuedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m queuedMsg) error {
	p.mu.Lock()
	if !p.ready || !p.client.IsConnectionOpen() {
		p.buf.push(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

func (p *RealPublisher) send(m queuedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// Commands returns remote clicks received on the command topic.
func (p *RealPublisher) Commands() <-chan Command {
	return p.commands
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
