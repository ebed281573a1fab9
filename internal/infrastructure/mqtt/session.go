package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Handlers receives session events. Every field is optional.
//
// Handlers are invoked from paho's goroutines and must not block; the
// dashboard controller only enqueues an event and returns.
type Handlers struct {
	OnConnect        func()
	OnConnectFailed  func(err error)
	OnConnectionLost func(err error)
	OnMessage        func(topic string, payload []byte)
}

// clientFactory builds the paho client; tests replace it with a fake.
type clientFactory func(opts *pahomqtt.ClientOptions) pahomqtt.Client

// Session is one logical connection to the broker.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Session struct {
	client   pahomqtt.Client
	options  *pahomqtt.ClientOptions
	cfg      config.MQTTConfig
	clientID string
	handlers Handlers

	// connected tracks the state last reported by paho callbacks.
	connected bool
	connMu    sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewSession prepares a session with a freshly randomised client ID.
// Nothing touches the network until Connect is called.
func NewSession(cfg config.MQTTConfig, handlers Handlers) *Session {
	return newSession(cfg, handlers, pahomqtt.NewClient)
}

func newSession(cfg config.MQTTConfig, handlers Handlers, factory clientFactory) *Session {
	s := &Session{
		cfg:      cfg,
		clientID: NewClientID(cfg.Broker.ClientIDPrefix),
		handlers: handlers,
	}

	opts := buildClientOptions(cfg, s.clientID)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		s.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.handleConnectionLost(err)
	})
	opts.SetDefaultPublishHandler(s.handleMessage)

	s.options = opts
	s.client = factory(opts)
	return s
}

// Connect starts a connection attempt and returns immediately.
//
// Success is reported through Handlers.OnConnect (also on every transport
// reconnect when auto_reconnect is enabled); failure through
// Handlers.OnConnectFailed wrapped in ErrConnectionFailed.
func (s *Session) Connect() {
	token := s.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			if cb := s.handlers.OnConnectFailed; cb != nil {
				cb(fmt.Errorf("%w: %w", ErrConnectionFailed, err))
			}
		}
	}()
}

// Subscribe asks the broker for topic at the configured QoS. The call does
// not wait for the SUBACK; a rejection is only logged.
func (s *Session) Subscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !s.IsConnected() {
		return ErrNotConnected
	}
	token := s.client.Subscribe(topic, s.qos(), nil)
	s.watch(token, ErrSubscribeFailed, topic)
	return nil
}

// Unsubscribe removes topic without waiting for the UNSUBACK.
func (s *Session) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !s.IsConnected() {
		return ErrNotConnected
	}
	token := s.client.Unsubscribe(topic)
	s.watch(token, ErrUnsubscribeFailed, topic)
	return nil
}

// Send publishes a non-retained message and hands it to paho without
// waiting for the PUBACK. At QoS 1 paho itself redelivers until acked.
func (s *Session) Send(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !s.IsConnected() {
		return ErrNotConnected
	}
	token := s.client.Publish(topic, qos, false, payload)
	s.watch(token, ErrPublishFailed, topic)
	return nil
}

// IsConnected returns the current connection state.
func (s *Session) IsConnected() bool {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connected && s.client.IsConnected()
}

// HealthCheck reports ErrNotConnected when the session is down.
func (s *Session) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}
	if !s.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// ClientID returns the randomised client identifier of this session.
func (s *Session) ClientID() string {
	return s.clientID
}

// BrokerURL returns the URL the session connects to.
func (s *Session) BrokerURL() string {
	return BrokerURL(s.cfg.Broker)
}

// Close disconnects from the broker. Closing a session that never
// connected is a no-op.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}

	s.connMu.Lock()
	s.connected = false
	s.connMu.Unlock()

	if s.client.IsConnectionOpen() {
		s.client.Disconnect(disconnectQuiesce)
	}
	return nil
}

// SetLogger sets a logger for asynchronous failures and handler panics.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

func (s *Session) qos() byte {
	if s.cfg.QoS < 0 || s.cfg.QoS > maxQoS {
		return 1
	}
	return byte(s.cfg.QoS)
}

// handleConnect is called by paho when a connection is established.
func (s *Session) handleConnect() {
	s.connMu.Lock()
	s.connected = true
	s.connMu.Unlock()

	if cb := s.handlers.OnConnect; cb != nil {
		cb()
	}
}

// handleConnectionLost is called by paho when an established connection drops.
func (s *Session) handleConnectionLost(err error) {
	s.connMu.Lock()
	s.connected = false
	s.connMu.Unlock()

	if cb := s.handlers.OnConnectionLost; cb != nil {
		cb(err)
	}
}

// handleMessage forwards an inbound message, recovering from handler panics
// so one bad payload cannot kill paho's delivery goroutine.
func (s *Session) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			if logger := s.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}
	}()

	if cb := s.handlers.OnMessage; cb != nil {
		cb(msg.Topic(), msg.Payload())
	}
}

// watch logs a token failure in the background. The caller never waits.
func (s *Session) watch(token pahomqtt.Token, kind error, topic string) {
	go func() {
		select {
		case <-token.Done():
		case <-time.After(ackTimeout):
			if logger := s.getLogger(); logger != nil {
				logger.Warn("MQTT operation not acknowledged", "error", kind, "topic", topic, "timeout", ackTimeout)
			}
			return
		}
		if err := token.Error(); err != nil {
			if logger := s.getLogger(); logger != nil {
				logger.Warn("MQTT operation failed", "error", fmt.Errorf("%w: %w", kind, err), "topic", topic)
			}
		}
	}()
}
