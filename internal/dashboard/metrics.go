package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the dashboard's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	messages      *prometheus.CounterVec
	readings      *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	publishes     *prometheus.CounterVec
	subscriptions *prometheus.CounterVec
	sessionState  prometheus.Gauge
	topics        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "messages_received_total",
			Help:      "Inbound MQTT messages, by whether the topic has a decode rule.",
		}, []string{"routed"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "readings_total",
			Help:      "Readings decoded and displayed, by channel.",
		}, []string{"channel"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "payloads_rejected_total",
			Help:      "Payloads on known topics that failed to decode, by channel.",
		}, []string{"channel"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "publishes_total",
			Help:      "Command publishes, by result.",
		}, []string{"result"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "subscription_calls_total",
			Help:      "Subscribe and unsubscribe calls issued to the broker.",
		}, []string{"op"}),
		sessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "session_state",
			Help:      "Session state: 0 disconnected, 1 connecting, 2 connected, 3 lost, 4 failed.",
		}),
		topics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "topics",
			Help:      "Topics in the working set, builtins included.",
		}),
	}

	reg.MustRegister(m.messages, m.readings, m.rejected, m.publishes, m.subscriptions, m.sessionState, m.topics)
	return m
}

func (m *Metrics) message(routed bool) {
	if m == nil {
		return
	}
	label := "false"
	if routed {
		label = "true"
	}
	m.messages.WithLabelValues(label).Inc()
}

func (m *Metrics) reading(channel string) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(channel).Inc()
}

func (m *Metrics) rejectedPayload(channel string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(channel).Inc()
}

func (m *Metrics) publish(result string) {
	if m == nil {
		return
	}
	m.publishes.WithLabelValues(result).Inc()
}

func (m *Metrics) subscriptionCall(op string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(op).Inc()
}

func (m *Metrics) state(s SessionState) {
	if m == nil {
		return
	}
	m.sessionState.Set(float64(s))
}

func (m *Metrics) topicCount(n int) {
	if m == nil {
		return
	}
	m.topics.Set(float64(n))
}
