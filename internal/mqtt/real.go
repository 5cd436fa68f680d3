package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/touch-sensor/internal/logic"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Config configures a RealPublisher.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	BufferSize  int
}

// client is the subset of paho.Client used for publishing.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. While the connection is
// down messages are queued and replayed, oldest first, after reconnecting.
type RealPublisher struct {
	client client
	topics Topics
	now    func() time.Time

	mu        sync.Mutex
	queue     *offlineQueue
	connected bool // true once the first connection succeeded
	replaying bool // queued messages are being sent; new ones queue behind them
}

// NewRealPublisher creates a publisher for the given broker. The connection is
// established in the background; until then messages are queued.
func NewRealPublisher(cfg Config) *RealPublisher {
	p := newPublisher(nil, NewTopics(cfg.TopicPrefix), cfg.BufferSize)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(p.topics.System, willPayload(), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c := paho.NewClient(opts)
	p.client = c

	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: broker %s not reachable yet, retrying in background", cfg.Broker)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: connect to %s: %v", cfg.Broker, err)
	}

	return p
}

func newPublisher(c client, topics Topics, bufferSize int) *RealPublisher {
	return &RealPublisher{
		client: c,
		topics: topics,
		now:    time.Now,
		queue:  newOfflineQueue(bufferSize),
	}
}

// willPayload is the last will sent by the broker when the connection drops.
// The broker publishes it long after it was registered, so it has no timestamp.
func willPayload() []byte {
	will, _ := FormatSystemPayload(SystemEvent{Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	return will
}

// handleConnect replays queued messages and announces reconnections.
func (p *RealPublisher) handleConnect() {
	p.mu.Lock()
	first := !p.connected
	p.connected = true
	p.replaying = true
	p.mu.Unlock()

	p.replay()

	if first {
		log.Printf("mqtt: connected")
		return
	}
	log.Printf("mqtt: reconnected")
	if err := p.PublishSystem(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}); err != nil {
		log.Printf("mqtt: publish reconnected event: %v", err)
	}
}

// replay sends queued messages oldest first until the queue is empty.
// The caller must have set p.replaying. On a failed send the unsent
// messages go back to the front of the queue and replay stops.
func (p *RealPublisher) replay() {
	for {
		p.mu.Lock()
		msgs, dropped := p.queue.drain()
		if len(msgs) == 0 {
			p.replaying = false
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		log.Printf("mqtt: replaying %d queued messages (%d dropped)", len(msgs), dropped)
		for i, m := range msgs {
			if err := p.send(m); err != nil {
				log.Printf("mqtt: replay to %s: %v; %d messages kept", m.topic, err, len(msgs)-i)
				p.mu.Lock()
				p.queue.unshift(msgs[i:])
				p.replaying = false
				p.mu.Unlock()
				return
			}
		}
	}
}

// Publish sends a touch event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.publish(pendingMsg{topic: p.topics.Events, payload: payload}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	msg := pendingMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained}
	if err := p.publish(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) publish(m pendingMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() || p.replaying {
		p.enqueue(m)
		p.mu.Unlock()
		return nil
	}
	if p.queue.len() > 0 {
		// Leftovers from an interrupted replay go out first.
		p.enqueue(m)
		p.replaying = true
		p.mu.Unlock()
		p.replay()
		return nil
	}
	p.mu.Unlock()

	return p.send(m)
}

// enqueue must be called with p.mu held.
func (p *RealPublisher) enqueue(m pendingMsg) {
	if p.queue.push(m) && p.queue.dropped == 1 {
		log.Printf("mqtt: offline queue full, dropping oldest")
	}
}

func (p *RealPublisher) send(m pendingMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout after %v", publishTimeout)
	}
	return token.Error()
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
