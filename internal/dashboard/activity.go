package dashboard

import (
	"context"
	"time"
)

// Activity log entry kinds.
const (
	KindInfo    = "info"
	KindError   = "error"
	KindReceive = "recv"
	KindPublish = "pub"
	KindAdd     = "add"
	KindRemove  = "remove"
	KindClear   = "clear"
)

const defaultActivityLogSize = 500

// LogEntry is one human-readable line of the activity log.
type LogEntry struct {
	Kind string    `json:"kind"`
	Line string    `json:"line"`
	Time time.Time `json:"time"`
}

// ActivityLog keeps the most recent entries in memory.
type ActivityLog struct {
	entries []LogEntry
	max     int
}

// NewActivityLog creates a log holding at most size entries (500 if size <= 0).
func NewActivityLog(size int) *ActivityLog {
	if size <= 0 {
		size = defaultActivityLogSize
	}
	return &ActivityLog{max: size}
}

// Append adds e, dropping the oldest entry when full.
func (l *ActivityLog) Append(e LogEntry) {
	if len(l.entries) == l.max {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.max-1]
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log, oldest first.
func (l *ActivityLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries held.
func (l *ActivityLog) Len() int {
	return len(l.entries)
}

// ActivityRepository persists the activity log across restarts.
//
// Implementations must be thread-safe and use UTC timestamps.
type ActivityRepository interface {
	// Append stores one entry.
	Append(ctx context.Context, e LogEntry) error

	// Recent returns up to limit entries, oldest first.
	Recent(ctx context.Context, limit int) ([]LogEntry, error)

	// Trim deletes everything but the newest keep entries.
	Trim(ctx context.Context, keep int) error
}

// Renderer receives everything the dashboard displays. Calls come from the
// controller's event loop and must not block.
type Renderer interface {
	TopicsChanged(topics []TopicView)
	ReadingUpdated(r Reading)
	LogAppended(e LogEntry)
	StatusChanged(state SessionState)
	Notice(message string)
}

// TelemetrySink records decoded readings. *influxdb.Client satisfies it.
type TelemetrySink interface {
	WriteReading(topic, channel, target string, value float64)
}

// Logger is the structured logger used by the dashboard.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopRenderer struct{}

func (noopRenderer) TopicsChanged([]TopicView)  {}
func (noopRenderer) ReadingUpdated(Reading)     {}
func (noopRenderer) LogAppended(LogEntry)       {}
func (noopRenderer) StatusChanged(SessionState) {}
func (noopRenderer) Notice(string)              {}
