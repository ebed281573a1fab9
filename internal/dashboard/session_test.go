package dashboard

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		from   SessionState
		ev     sessionEvent
		want   SessionState
		wantOK bool
	}{
		{StateDisconnected, eventConnectRequested, StateConnecting, true},
		{StateFailed, eventConnectRequested, StateConnecting, true},
		{StateLost, eventConnectRequested, StateConnecting, true},
		{StateConnecting, eventConnectRequested, StateConnecting, false},
		{StateConnected, eventConnectRequested, StateConnected, false},
		{StateConnecting, eventConnected, StateConnected, true},
		{StateLost, eventConnected, StateConnected, true},
		{StateConnected, eventConnected, StateConnected, true},
		{StateConnecting, eventConnectFailed, StateFailed, true},
		{StateConnected, eventConnectFailed, StateConnected, false},
		{StateConnected, eventConnectionLost, StateLost, true},
		{StateConnecting, eventConnectionLost, StateConnecting, false},
		{StateDisconnected, eventConnectionLost, StateDisconnected, false},
	}

	for _, tt := range tests {
		got, ok := transition(tt.from, tt.ev)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("transition(%v, %d) = %v, %v; want %v, %v", tt.from, tt.ev, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSessionState_Text(t *testing.T) {
	tests := []struct {
		state  SessionState
		name   string
		status string
	}{
		{StateDisconnected, "disconnected", "disconnected"},
		{StateConnecting, "connecting", "connecting"},
		{StateConnected, "connected", "connected"},
		{StateLost, "lost", "connection lost"},
		{StateFailed, "failed", "connect failed"},
		{SessionState(99), "unknown", "disconnected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.state.StatusText(); got != tt.status {
			t.Errorf("StatusText() = %q, want %q", got, tt.status)
		}
	}
}
