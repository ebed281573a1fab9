package dashboard

// Reconciler keeps broker subscriptions in line with the topic set.
//
// Calls are fire-and-forget: acknowledgements are never awaited or retried,
// and a synchronous transport error is logged only. Anything missed while
// the session is down is caught up by the full resubscribe on the next
// Connected transition.
type Reconciler struct {
	transport Transport
	metrics   *Metrics
	logger    Logger
}

// NewReconciler creates a reconciler over transport. metrics may be nil.
func NewReconciler(transport Transport, metrics *Metrics, logger Logger) *Reconciler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Reconciler{transport: transport, metrics: metrics, logger: logger}
}

// Resubscribe subscribes every topic in order. It is the entry action of
// the Connected state and runs on every connect and reconnect alike.
func (r *Reconciler) Resubscribe(topics []string) {
	for _, t := range topics {
		r.subscribe(t)
	}
}

// Apply sends only the delta of change, and only while connected.
// It reports whether any call was issued.
func (r *Reconciler) Apply(state SessionState, change Change) bool {
	if state != StateConnected || change.IsEmpty() {
		return false
	}
	for _, t := range change.Added {
		r.subscribe(t)
	}
	for _, t := range change.Removed {
		r.unsubscribe(t)
	}
	return true
}

func (r *Reconciler) subscribe(topic string) {
	r.metrics.subscriptionCall("subscribe")
	if err := r.transport.Subscribe(topic); err != nil {
		r.logger.Warn("subscribe failed", "topic", topic, "error", err)
	}
}

func (r *Reconciler) unsubscribe(topic string) {
	r.metrics.subscriptionCall("unsubscribe")
	if err := r.transport.Unsubscribe(topic); err != nil {
		r.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
	}
}
