package mqtt

import (
	"encoding/json"
	"sync"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// publishQueueSize bounds the number of pending state publishes.
// When the queue is full, new snapshots are dropped rather than
// blocking the device update path.
const publishQueueSize = 256

// Publisher is the outbound surface StatePublisher needs from Client.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// message is one queued publish.
type message struct {
	topic   string
	payload []byte
}

// StatePublisher forwards canonical device and system state to the MQTT
// broker without blocking the caller.
//
// Snapshots are marshalled on the caller's goroutine (states are small)
// and handed to a single worker that performs the actual publishes.
// Publish failures are logged and the snapshot is discarded; the broker
// retains the last successful payload per topic, so consumers converge
// on the next update.
type StatePublisher struct {
	pub    Publisher
	topics Topics
	logger Logger

	queue chan message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewStatePublisher creates a publisher and starts its worker goroutine.
// A nil logger disables logging.
func NewStatePublisher(pub Publisher, logger Logger) *StatePublisher {
	p := &StatePublisher{
		pub:    pub,
		logger: logger,
		queue:  make(chan message, publishQueueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishDeviceState queues one device snapshot on auriga/state/<role>.
func (p *StatePublisher) PublishDeviceState(role device.Role, state *device.State) {
	p.enqueue(p.topics.DeviceState(role), state)
}

// PublishSystemState queues the aggregated snapshot on auriga/state/system.
// The snapshot may be any JSON-marshallable value.
func (p *StatePublisher) PublishSystemState(snapshot any) {
	p.enqueue(p.topics.SystemState(), snapshot)
}

// Close stops the worker after the queued messages have been published.
// Safe to call more than once; Publish* calls made after Close drop
// their snapshot silently, so adapters may keep emitting while they
// wind down.
func (p *StatePublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *StatePublisher) enqueue(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("MQTT state marshal failed", "topic", topic, "error", err)
		}
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}

	select {
	case p.queue <- message{topic: topic, payload: payload}:
	default:
		if p.logger != nil {
			p.logger.Warn("MQTT publish queue full, dropping snapshot", "topic", topic)
		}
	}
}

func (p *StatePublisher) run() {
	defer close(p.done)

	for msg := range p.queue {
		if err := p.pub.PublishRetained(msg.topic, msg.payload); err != nil {
			if p.logger != nil {
				p.logger.Warn("MQTT state publish failed", "topic", msg.topic, "error", err)
			}
		}
	}
}
