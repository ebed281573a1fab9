package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
)

// eventQueueSize buffers session callbacks while the loop is busy.
const eventQueueSize = 256

// historyTrimInterval is how many persisted log entries may accumulate
// beyond ActivityLogSize before the table is trimmed again.
const historyTrimInterval = 32

// User-facing notices.
const (
	noticeTopicEmpty   = "topic is empty"
	noticeTopicExists  = "topic already exists"
	noticeNotConnected = "connect to the MQTT broker first"
)

// Deps holds the controller's collaborators.
type Deps struct {
	Config config.DashboardConfig

	// Store persists the user topic list. Required.
	Store KeyValueStore

	// History persists the activity log (optional).
	History ActivityRepository

	// Telemetry mirrors readings to a time-series store (optional).
	Telemetry TelemetrySink

	// Renderer receives display updates (optional).
	Renderer Renderer

	// Metrics records Prometheus metrics (optional).
	Metrics *Metrics

	Logger Logger

	// BrokerLabel names the broker in the connect log line, e.g.
	// "broker.local:8084 (wss)".
	BrokerLabel string

	// Now overrides the clock for log timestamps (optional).
	Now func() time.Time
}

// Snapshot is a consistent copy of the dashboard state.
type Snapshot struct {
	State        SessionState      `json:"state"`
	Status       string            `json:"status"`
	ControlTopic string            `json:"control_topic"`
	Topics       []TopicView       `json:"topics"`
	Readings     map[string]string `json:"readings"`
	Log          []LogEntry        `json:"log"`
}

// Controller owns the dashboard state and serialises every event onto one
// goroutine.
//
// Session callbacks (Handle*) and user actions may be called from any
// goroutine. They post work to the event loop started by Run; user
// actions wait for their result, callbacks do not.
type Controller struct {
	cfg         config.DashboardConfig
	history     ActivityRepository
	telemetry   TelemetrySink
	renderer    Renderer
	metrics     *Metrics
	logger      Logger
	brokerLabel string
	now         func() time.Time

	events  chan func()
	done    chan struct{}
	started atomic.Bool

	// stateView mirrors state for lock-free reads outside the loop.
	stateView atomic.Int32

	// Owned by the event loop.
	ctx        context.Context
	transport  Transport
	state      SessionState
	topics     *TopicStore
	router     *Router
	reconciler *Reconciler
	publisher  *Publisher
	readings   map[string]string
	log        *ActivityLog
	sinceTrim  int
}

// New creates a controller. Nothing runs until Run is called.
func New(deps Deps) (*Controller, error) {
	if deps.Store == nil {
		return nil, errors.New("dashboard: key-value store is required")
	}
	rules, err := NewRules(deps.Config)
	if err != nil {
		return nil, fmt.Errorf("dashboard: building decode rules: %w", err)
	}
	// The in-memory log and the persisted tail share one bound.
	if deps.Config.ActivityLogSize <= 0 {
		deps.Config.ActivityLogSize = defaultActivityLogSize
	}

	c := &Controller{
		cfg:         deps.Config,
		history:     deps.History,
		telemetry:   deps.Telemetry,
		renderer:    deps.Renderer,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		brokerLabel: deps.BrokerLabel,
		now:         deps.Now,
		events:      make(chan func(), eventQueueSize),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		state:       StateDisconnected,
		topics:      NewTopicStore(deps.Store, deps.Config.StorageKey, deps.Config.BuiltinTopics),
		router:      NewRouter(rules),
		readings:    make(map[string]string),
		log:         NewActivityLog(deps.Config.ActivityLogSize),
	}
	if c.renderer == nil {
		c.renderer = noopRenderer{}
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Run loads persisted state, starts the first connect attempt and
// processes events until ctx is cancelled. It may be called once.
func (c *Controller) Run(ctx context.Context, transport Transport) error {
	if transport == nil {
		return errors.New("dashboard: transport is required")
	}
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("dashboard: controller already running")
	}
	defer close(c.done)

	c.ctx = ctx
	c.transport = transport
	c.reconciler = NewReconciler(transport, c.metrics, c.logger)
	c.publisher = NewPublisher(transport, c.cfg.ControlTopic, c.metrics)

	c.restore()
	_ = c.requestConnect() // a fresh controller is always Disconnected

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("dashboard controller stopped")
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// restore loads the topic set and replays the persisted activity log.
func (c *Controller) restore() {
	if c.history != nil {
		entries, err := c.history.Recent(c.ctx, c.cfg.ActivityLogSize)
		if err != nil {
			c.logger.Warn("loading activity log failed", "error", err)
		}
		for _, e := range entries {
			c.log.Append(e)
		}
		if err := c.history.Trim(c.ctx, c.cfg.ActivityLogSize); err != nil {
			c.logger.Warn("trimming activity log failed", "error", err)
		}
	}

	topics, diag := c.topics.Load(c.ctx)
	if diag != nil {
		c.logger.Warn("stored topics unreadable, using builtin topics", "error", diag)
		c.appendLog(KindError, "stored topics unreadable, using builtin topics")
	}
	c.logger.Info("topics loaded", "count", len(topics), "user", len(c.topics.UserTopics()))
	c.metrics.topicCount(len(topics))
	c.metrics.state(c.state)
	c.renderer.TopicsChanged(c.topics.Views())
}

// --- Session callbacks ---------------------------------------------------

// HandleConnect is the transport's connection-established callback.
func (c *Controller) HandleConnect() {
	c.post(context.Background(), c.onConnected)
}

// HandleConnectFailed is the transport's connect-failure callback.
func (c *Controller) HandleConnectFailed(err error) {
	c.post(context.Background(), func() { c.onConnectFailed(err) })
}

// HandleConnectionLost is the transport's connection-lost callback.
func (c *Controller) HandleConnectionLost(err error) {
	c.post(context.Background(), func() { c.onConnectionLost(err) })
}

// HandleMessage is the transport's message-arrival callback. Messages are
// processed strictly in the order this is called.
func (c *Controller) HandleMessage(topic string, payload []byte) {
	body := string(payload)
	c.post(context.Background(), func() { c.onMessage(topic, body) })
}

// --- User actions ---------------------------------------------------------

// AddTopic adds a user topic and subscribes it when connected.
// Returns ErrTopicEmpty or ErrTopicExists; both also raise a notice.
func (c *Controller) AddTopic(ctx context.Context, topic string) error {
	var err error
	if derr := c.do(ctx, func() { err = c.addTopic(topic) }); derr != nil {
		return derr
	}
	return err
}

// RemoveTopic removes a user topic and unsubscribes it when connected.
// Builtins return ErrTopicProtected without a notice.
func (c *Controller) RemoveTopic(ctx context.Context, topic string) error {
	var err error
	if derr := c.do(ctx, func() { err = c.removeTopic(topic) }); derr != nil {
		return derr
	}
	return err
}

// ClearTopics drops every user topic and returns those removed. The caller
// is responsible for obtaining the user's confirmation first.
func (c *Controller) ClearTopics(ctx context.Context) ([]string, error) {
	var removed []string
	if err := c.do(ctx, func() { removed = c.clearTopics() }); err != nil {
		return nil, err
	}
	return removed, nil
}

// Publish sends payload to topic. Returns ErrNotConnected, with a notice,
// when the session is not connected.
func (c *Controller) Publish(ctx context.Context, topic, payload string) error {
	var err error
	if derr := c.do(ctx, func() { err = c.publish(topic, payload) }); derr != nil {
		return derr
	}
	return err
}

// PublishLevel shows level as the new setpoint and sends it to the
// control topic.
func (c *Controller) PublishLevel(ctx context.Context, level int) error {
	var err error
	if derr := c.do(ctx, func() { err = c.publishLevel(level) }); derr != nil {
		return derr
	}
	return err
}

// Connect starts a user-requested connect attempt. Returns
// ErrSessionActive while connecting or connected.
func (c *Controller) Connect(ctx context.Context) error {
	var err error
	if derr := c.do(ctx, func() { err = c.requestConnect() }); derr != nil {
		return derr
	}
	return err
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, func() {
		readings := make(map[string]string, len(c.readings))
		for k, v := range c.readings {
			readings[k] = v
		}
		snap = Snapshot{
			State:        c.state,
			Status:       c.state.StatusText(),
			ControlTopic: c.cfg.ControlTopic,
			Topics:       c.topics.Views(),
			Readings:     readings,
			Log:          c.log.Entries(),
		}
	})
	return snap, err
}

// Topics returns the working topic set with builtin flags.
func (c *Controller) Topics(ctx context.Context) ([]TopicView, error) {
	var views []TopicView
	err := c.do(ctx, func() { views = c.topics.Views() })
	return views, err
}

// State returns the last known session state without a loop round trip.
func (c *Controller) State() SessionState {
	return SessionState(c.stateView.Load())
}

// --- Event loop -----------------------------------------------------------

// post queues fn for the event loop. It reports false when the loop has
// stopped or ctx ended first.
func (c *Controller) post(ctx context.Context, fn func()) bool {
	select {
	case c.events <- fn:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// do runs fn on the event loop and waits for it to finish.
func (c *Controller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !c.post(ctx, func() { fn(); close(finished) }) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

func (c *Controller) setState(ev sessionEvent) bool {
	next, ok := transition(c.state, ev)
	if !ok {
		return false
	}
	c.state = next
	c.stateView.Store(int32(next)) // #nosec G115 -- small enum
	c.metrics.state(next)
	c.renderer.StatusChanged(next)
	return true
}

func (c *Controller) requestConnect() error {
	if !c.setState(eventConnectRequested) {
		return ErrSessionActive
	}
	c.logger.Info("connecting to MQTT broker", "broker", c.brokerLabel)
	c.appendLog(KindInfo, "connecting to "+c.brokerLabel)
	c.transport.Connect()
	return nil
}

// onConnected is the Connected entry action: a full resubscribe.
func (c *Controller) onConnected() {
	c.setState(eventConnected)
	topics := c.topics.Topics()
	c.logger.Info("MQTT session connected", "topics", len(topics))
	c.appendLog(KindInfo, "connected, subscribing to all stored topics")
	c.reconciler.Resubscribe(topics)
}

func (c *Controller) onConnectFailed(err error) {
	if !c.setState(eventConnectFailed) {
		return
	}
	c.logger.Warn("MQTT connect failed", "error", err)
	c.appendLog(KindError, fmt.Sprintf("connect failed: %v", err))
}

func (c *Controller) onConnectionLost(err error) {
	if !c.setState(eventConnectionLost) {
		return
	}
	c.logger.Warn("MQTT connection lost", "error", err)
	if err != nil {
		c.appendLog(KindError, fmt.Sprintf("connection lost: %v", err))
	}
}

func (c *Controller) onMessage(topic, payload string) {
	c.appendLog(KindReceive, fmt.Sprintf("[recv] topic: %s | payload: %s", topic, payload))

	reading, known, ok := c.router.Route(topic, []byte(payload))
	c.metrics.message(known)
	if !known {
		return
	}
	if !ok {
		rule, _ := c.router.Rule(topic)
		c.metrics.rejectedPayload(rule.Channel)
		c.logger.Debug("payload rejected", "topic", topic, "channel", rule.Channel)
		return
	}

	c.showReading(reading)
	c.metrics.reading(reading.Channel)
	if c.telemetry != nil {
		c.telemetry.WriteReading(reading.Topic, reading.Channel, reading.Target, reading.Value)
	}
}

func (c *Controller) showReading(r Reading) {
	c.readings[r.Target] = r.Display
	c.renderer.ReadingUpdated(r)
}

func (c *Controller) addTopic(topic string) error {
	change, err := c.topics.Add(c.ctx, topic)
	if change.IsEmpty() {
		switch {
		case errors.Is(err, ErrTopicEmpty):
			c.renderer.Notice(noticeTopicEmpty)
		case errors.Is(err, ErrTopicExists):
			c.renderer.Notice(noticeTopicExists)
		}
		return err
	}

	c.topicsChanged(err)
	if c.reconciler.Apply(c.state, change) {
		c.appendLog(KindAdd, "[add] subscribed new topic: "+change.Added[0])
	}
	return nil
}

func (c *Controller) removeTopic(topic string) error {
	change, err := c.topics.Remove(c.ctx, topic)
	if change.IsEmpty() {
		return err
	}

	c.topicsChanged(err)
	if c.reconciler.Apply(c.state, change) {
		c.appendLog(KindRemove, "[remove] unsubscribed topic: "+change.Removed[0])
	}
	return nil
}

func (c *Controller) clearTopics() []string {
	change, err := c.topics.Clear(c.ctx)
	c.topicsChanged(err)
	c.reconciler.Apply(c.state, change)
	if c.state == StateConnected {
		c.appendLog(KindClear, "[clear] unsubscribed all custom topics")
	}
	return change.Removed
}

// topicsChanged renders the new set. A persist failure is reported but
// the in-memory change stands.
func (c *Controller) topicsChanged(persistErr error) {
	if persistErr != nil {
		c.logger.Error("saving topics failed", "error", persistErr)
		c.appendLog(KindError, fmt.Sprintf("saving topics failed: %v", persistErr))
	}
	views := c.topics.Views()
	c.metrics.topicCount(len(views))
	c.renderer.TopicsChanged(views)
}

func (c *Controller) publish(topic, payload string) error {
	return c.published(topic, payload, c.publisher.Publish(c.state, topic, payload))
}

func (c *Controller) publishLevel(level int) error {
	if level < MinLevel || level > MaxLevel {
		return fmt.Errorf("%w: %d not in %d..%d", ErrLevelOutOfRange, level, MinLevel, MaxLevel)
	}
	payload := strconv.Itoa(level)

	// The slider shows its position whether or not the send succeeds.
	if rule, ok := c.router.Rule(c.cfg.ControlTopic); ok && rule.Channel == config.ChannelSetpoint {
		if display, value, ok := rule.Decode(payload); ok {
			c.showReading(Reading{
				Topic:   c.cfg.ControlTopic,
				Channel: rule.Channel,
				Target:  rule.Target,
				Display: display,
				Value:   value,
			})
		}
	}

	return c.published(c.cfg.ControlTopic, payload, c.publisher.PublishLevel(c.state, level))
}

// published reports the outcome of a send.
func (c *Controller) published(topic, payload string, err error) error {
	if err != nil {
		if errors.Is(err, ErrNotConnected) {
			c.renderer.Notice(noticeNotConnected)
		} else {
			c.logger.Warn("publish failed", "topic", topic, "error", err)
		}
		return err
	}
	c.appendLog(KindPublish, fmt.Sprintf("[pub] topic: %s (QoS %d) | payload: %s", topic, controlQoS, payload))
	return nil
}

func (c *Controller) appendLog(kind, line string) {
	e := LogEntry{Kind: kind, Line: line, Time: c.now().UTC()}
	c.log.Append(e)
	if c.history != nil {
		if err := c.history.Append(c.ctx, e); err != nil {
			c.logger.Warn("persisting activity log entry failed", "error", err)
		}
		c.sinceTrim++
		if c.sinceTrim >= historyTrimInterval {
			c.sinceTrim = 0
			if err := c.history.Trim(c.ctx, c.cfg.ActivityLogSize); err != nil {
				c.logger.Warn("trimming activity log failed", "error", err)
			}
		}
	}
	c.renderer.LogAppended(e)
}
