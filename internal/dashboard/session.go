package dashboard

// SessionState is the dashboard's view of the MQTT session.
type SessionState int

// Session states.
const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateLost

	// StateFailed follows a failed connect attempt. It gates like
	// StateDisconnected but renders its own status text.
	StateFailed
)

// String returns the machine-readable state name used in JSON and logs.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateLost:
		return "lost"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusText is the human-readable status line shown by the dashboard.
func (s SessionState) StatusText() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateLost:
		return "connection lost"
	case StateFailed:
		return "connect failed"
	default:
		return "disconnected"
	}
}

// MarshalText encodes the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transport is the MQTT session as seen by the dashboard.
// *mqtt.Session satisfies it.
type Transport interface {
	// Connect starts an attempt; the outcome arrives through the
	// controller's Handle* callbacks.
	Connect()
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	Send(topic string, payload []byte, qos byte) error
	IsConnected() bool
}

// sessionEvent is an input to the session state machine.
type sessionEvent int

const (
	eventConnectRequested sessionEvent = iota
	eventConnected
	eventConnectFailed
	eventConnectionLost
)

// transition returns the state that follows ev and whether ev applies in
// state s. eventConnected always applies: every new transport session
// starts without subscriptions, so the Connected entry action must run
// even when paho reports a connection twice.
func transition(s SessionState, ev sessionEvent) (SessionState, bool) {
	switch ev {
	case eventConnectRequested:
		if s == StateConnecting || s == StateConnected {
			return s, false
		}
		return StateConnecting, true
	case eventConnected:
		return StateConnected, true
	case eventConnectFailed:
		if s != StateConnecting {
			return s, false
		}
		return StateFailed, true
	case eventConnectionLost:
		if s != StateConnected {
			return s, false
		}
		return StateLost, true
	}
	return s, false
}
