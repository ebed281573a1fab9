package dashboard

// Router maps inbound messages to readings using a fixed rule table.
// It has no side effects; the Controller applies what it returns.
type Router struct {
	rules map[string]Rule
}

// NewRouter creates a router over rules. The map is not copied and must
// not be modified afterwards.
func NewRouter(rules map[string]Rule) *Router {
	if rules == nil {
		rules = map[string]Rule{}
	}
	return &Router{rules: rules}
}

// Route decodes payload for topic.
//
// known is false for topics without a rule; such messages are only logged.
// ok is false when the topic is known but the payload is rejected, in which
// case the previous reading for its target stays in place.
func (r *Router) Route(topic string, payload []byte) (reading Reading, known, ok bool) {
	rule, known := r.rules[topic]
	if !known {
		return Reading{}, false, false
	}

	display, value, ok := rule.Decode(string(payload))
	if !ok {
		return Reading{}, true, false
	}

	return Reading{
		Topic:   topic,
		Channel: rule.Channel,
		Target:  rule.Target,
		Display: display,
		Value:   value,
	}, true, true
}

// Rule returns the rule registered for topic.
func (r *Router) Rule(topic string) (Rule, bool) {
	rule, ok := r.rules[topic]
	return rule, ok
}
