//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// Integration tests against a real broker.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:           "127.0.0.1",
			Port:           1883,
			ClientIDPrefix: "dashboard_it_",
		},
		QoS:            1,
		ConnectTimeout: 3,
		KeepAlive:      30,
	}
}

func waitConnected(t *testing.T, connected <-chan struct{}) {
	t.Helper()
	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not connect within 5s")
	}
}

func TestIntegration_PublishSubscribeRoundTrip(t *testing.T) {
	connected := make(chan struct{}, 1)
	received := make(chan string, 1)

	s := NewSession(integrationConfig(), Handlers{
		OnConnect: func() { connected <- struct{}{} },
		OnMessage: func(topic string, payload []byte) {
			received <- topic + "|" + string(payload)
		},
	})
	defer s.Close()

	s.Connect()
	waitConnected(t, connected)

	topic := "dashboard/it/" + s.ClientID()
	if err := s.Subscribe(topic); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	// SUBACK is not awaited by Subscribe.
	time.Sleep(200 * time.Millisecond)

	if err := s.Send(topic, []byte("17"), 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-received:
		if got != topic+"|17" {
			t.Errorf("received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestIntegration_UnsubscribeStopsDelivery(t *testing.T) {
	connected := make(chan struct{}, 1)
	var mu sync.Mutex
	count := 0

	s := NewSession(integrationConfig(), Handlers{
		OnConnect: func() { connected <- struct{}{} },
		OnMessage: func(string, []byte) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	defer s.Close()

	s.Connect()
	waitConnected(t, connected)

	topic := "dashboard/it/unsub/" + s.ClientID()
	if err := s.Subscribe(topic); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := s.Unsubscribe(topic); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if err := s.Send(topic, []byte("x"), 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("received %d messages after unsubscribe", count)
	}
}

func TestIntegration_ConnectFailure(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.Port = 1 // nothing listens here
	cfg.ConnectTimeout = 1

	failed := make(chan error, 1)
	s := NewSession(cfg, Handlers{
		OnConnectFailed: func(err error) { failed <- err },
	})
	defer s.Close()

	s.Connect()

	select {
	case <-failed:
	case <-time.After(5 * time.Second):
		t.Fatal("OnConnectFailed not called")
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true after failed connect")
	}
}
