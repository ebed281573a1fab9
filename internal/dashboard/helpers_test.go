package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-dashboard/internal/kvstore"
)

var testBuiltins = []string{
	"emqx/esp32eqw",
	"emqx/esp32eqwc",
	"emqx/esp32eqw/temp",
	"emqx/esp32eqw/humi",
	"emqx/esp32eqw/light",
}

func testDashboardConfig() config.DashboardConfig {
	return config.Default().Dashboard
}

// fakeTransport records every call in order.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	connects  int
	calls     []string
	sendErr   error
}

func (f *fakeTransport) Connect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
}

func (f *fakeTransport) Subscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "sub:"+topic)
	return nil
}

func (f *fakeTransport) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "unsub:"+topic)
	return nil
}

func (f *fakeTransport) Send(topic string, payload []byte, qos byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.calls = append(f.calls, fmt.Sprintf("send:%s=%s@%d", topic, payload, qos))
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) setConnected(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = v
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeTransport) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// fakeRenderer records display updates.
type fakeRenderer struct {
	mu       sync.Mutex
	topics   [][]TopicView
	readings []Reading
	logs     []LogEntry
	statuses []SessionState
	notices  []string
}

func (r *fakeRenderer) TopicsChanged(t []TopicView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, t)
}

func (r *fakeRenderer) ReadingUpdated(rd Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, rd)
}

func (r *fakeRenderer) LogAppended(e LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, e)
}

func (r *fakeRenderer) StatusChanged(s SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *fakeRenderer) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

func (r *fakeRenderer) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.notices)
}

func (r *fakeRenderer) Statuses() []SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.statuses)
}

// fakeTelemetry records readings written to the sink.
type fakeTelemetry struct {
	mu     sync.Mutex
	points []string
}

func (f *fakeTelemetry) WriteReading(topic, channel, target string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, fmt.Sprintf("%s|%s|%s|%g", topic, channel, target, value))
}

func (f *fakeTelemetry) Points() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.points)
}

// failingStore reads fine but refuses every write.
type failingStore struct {
	*kvstore.MemoryStore
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

// brokenStore fails every read.
type brokenStore struct {
	*kvstore.MemoryStore
}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

// harness runs a controller against fakes.
type harness struct {
	ctrl      *Controller
	transport *fakeTransport
	renderer  *fakeRenderer
	telemetry *fakeTelemetry
	store     KeyValueStore
}

func newHarness(t *testing.T, store KeyValueStore, history ActivityRepository) *harness {
	t.Helper()
	return newHarnessWithConfig(t, testDashboardConfig(), store, history)
}

func newHarnessWithConfig(t *testing.T, cfg config.DashboardConfig, store KeyValueStore, history ActivityRepository) *harness {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	h := &harness{
		transport: &fakeTransport{},
		renderer:  &fakeRenderer{},
		telemetry: &fakeTelemetry{},
		store:     store,
	}

	ctrl, err := New(Deps{
		Config:      cfg,
		Store:       store,
		History:     history,
		Telemetry:   h.telemetry,
		Renderer:    h.renderer,
		BrokerLabel: "broker.test:8084 (wss)",
		Now:         func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.ctrl = ctrl

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, h.transport) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})

	// Wait for startup to finish.
	h.snapshot(t)
	return h
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := h.ctrl.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return snap
}

// connect simulates the transport establishing a session.
func (h *harness) connect(t *testing.T) {
	t.Helper()
	h.transport.setConnected(true)
	h.ctrl.HandleConnect()
	h.snapshot(t)
}

func (h *harness) lose(t *testing.T, err error) {
	t.Helper()
	h.transport.setConnected(false)
	h.ctrl.HandleConnectionLost(err)
	h.snapshot(t)
}

func (h *harness) message(t *testing.T, topic, payload string) Snapshot {
	t.Helper()
	h.ctrl.HandleMessage(topic, []byte(payload))
	return h.snapshot(t)
}

func storedTopics(t *testing.T, store KeyValueStore) string {
	t.Helper()
	v, _, err := store.Get(context.Background(), testDashboardConfig().StorageKey)
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	return v
}

func topicNames(views []TopicView) []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Topic
	}
	return names
}
