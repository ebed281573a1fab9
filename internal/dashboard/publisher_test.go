package dashboard

import (
	"errors"
	"slices"
	"testing"
)

func TestPublisher_Publish(t *testing.T) {
	ft := &fakeTransport{}
	p := NewPublisher(ft, "emqx/esp32eqw", nil)

	if err := p.Publish(StateDisconnected, "emqx/esp32eqw", "5"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish(disconnected) error = %v", err)
	}
	// Connected state but transport reports down.
	if err := p.Publish(StateConnected, "emqx/esp32eqw", "5"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish(transport down) error = %v", err)
	}
	if calls := ft.Calls(); len(calls) != 0 {
		t.Fatalf("send issued while not connected: %v", calls)
	}

	ft.setConnected(true)
	if err := p.Publish(StateConnected, " ", "5"); !errors.Is(err, ErrTopicEmpty) {
		t.Errorf("Publish(empty topic) error = %v", err)
	}
	if err := p.Publish(StateConnected, "dev/cmd", "on"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if got := ft.Calls(); !slices.Equal(got, []string{"send:dev/cmd=on@1"}) {
		t.Errorf("calls = %v, want QoS 1 send", got)
	}

	ft.sendErr = errors.New("queue full")
	if err := p.Publish(StateConnected, "dev/cmd", "on"); err == nil {
		t.Error("Publish() with failing transport = nil error")
	}
}

func TestPublisher_PublishLevel(t *testing.T) {
	ft := &fakeTransport{connected: true}
	p := NewPublisher(ft, "emqx/esp32eqw", nil)

	for _, level := range []int{-1, 32, 100} {
		if err := p.PublishLevel(StateConnected, level); !errors.Is(err, ErrLevelOutOfRange) {
			t.Errorf("PublishLevel(%d) error = %v, want ErrLevelOutOfRange", level, err)
		}
	}
	for _, level := range []int{0, 15, 31} {
		if err := p.PublishLevel(StateConnected, level); err != nil {
			t.Errorf("PublishLevel(%d) error = %v", level, err)
		}
	}

	want := []string{"send:emqx/esp32eqw=0@1", "send:emqx/esp32eqw=15@1", "send:emqx/esp32eqw=31@1"}
	if got := ft.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if p.ControlTopic() != "emqx/esp32eqw" {
		t.Errorf("ControlTopic() = %q", p.ControlTopic())
	}
}
