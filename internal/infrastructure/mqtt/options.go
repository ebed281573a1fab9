package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout applies when the config leaves connect_timeout unset.
	defaultConnectTimeout = 10 * time.Second

	// defaultKeepAlive applies when the config leaves keep_alive unset.
	defaultKeepAlive = 60 * time.Second

	// ackTimeout bounds how long a background watcher waits for a broker ack.
	ackTimeout = 10 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on disconnect.
	disconnectQuiesce = 250 // milliseconds

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// maxPayloadSize keeps a stray paste from flooding the broker (1MB).
	maxPayloadSize = 1 << 20

	// clientIDSuffixLen is the number of uuid characters appended to the prefix.
	clientIDSuffixLen = 8

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// BrokerURL returns the paho server URL for the configured broker and transport.
func BrokerURL(b config.MQTTBrokerConfig) string {
	var scheme string
	switch b.Transport {
	case "websocket":
		scheme = "ws"
		if b.TLS {
			scheme = "wss"
		}
	default:
		scheme = "tcp"
		if b.TLS {
			scheme = "ssl"
		}
	}

	url := fmt.Sprintf("%s://%s:%d", scheme, b.Host, b.Port)
	if b.Transport == "websocket" && b.Path != "" {
		url += "/" + strings.TrimPrefix(b.Path, "/")
	}
	return url
}

// NewClientID returns prefix followed by a random suffix, so every process
// start gets a distinct identity and never kicks an older session off the broker.
func NewClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:clientIDSuffixLen]
	return prefix + suffix
}

// buildClientOptions creates paho MQTT options from the dashboard config.
//
// This configures:
//   - Broker URL (tcp, ssl, ws or wss)
//   - Client ID and credentials
//   - Clean session, no subscription resume (the reconciler owns that)
//   - Connect timeout and keep-alive
//   - Transport-level auto-reconnect only when configured
func buildClientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(cfg.Broker))
	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetResumeSubs(false)
	opts.SetOrderMatters(true)

	opts.SetAutoReconnect(cfg.AutoReconnect)
	opts.SetConnectRetry(false)

	connectTimeout := defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		connectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	}
	opts.SetConnectTimeout(connectTimeout)

	keepAlive := defaultKeepAlive
	if cfg.KeepAlive > 0 {
		keepAlive = time.Duration(cfg.KeepAlive) * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
