package dashboard

import (
	"fmt"
	"strconv"
	"strings"
)

// controlQoS is at-least-once delivery for commands.
const controlQoS = 1

// Publisher sends user commands to the device.
//
// No local retry or buffering is done: a send the transport accepts while
// reporting itself connected is considered delivered.
type Publisher struct {
	transport    Transport
	controlTopic string
	metrics      *Metrics
}

// NewPublisher creates a publisher whose level commands go to controlTopic.
func NewPublisher(transport Transport, controlTopic string, metrics *Metrics) *Publisher {
	return &Publisher{transport: transport, controlTopic: controlTopic, metrics: metrics}
}

// ControlTopic returns the topic level commands are sent to.
func (p *Publisher) ControlTopic() string {
	return p.controlTopic
}

// Publish sends payload to topic at QoS 1, non-retained.
//
// Nothing is sent and ErrNotConnected is returned unless the session is
// Connected and the transport agrees.
func (p *Publisher) Publish(state SessionState, topic, payload string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrTopicEmpty
	}
	if state != StateConnected || !p.transport.IsConnected() {
		p.metrics.publish("not_connected")
		return ErrNotConnected
	}
	if err := p.transport.Send(topic, []byte(payload), controlQoS); err != nil {
		p.metrics.publish("error")
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.metrics.publish("sent")
	return nil
}

// PublishLevel sends level to the control topic as a decimal string.
func (p *Publisher) PublishLevel(state SessionState, level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %d not in %d..%d", ErrLevelOutOfRange, level, MinLevel, MaxLevel)
	}
	return p.Publish(state, p.controlTopic, strconv.Itoa(level))
}
