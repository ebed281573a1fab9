package dashboard

import "errors"

// Domain errors for the dashboard package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, dashboard.ErrTopicExists) {
//	    // tell the user the topic is already subscribed
//	}
var (
	// ErrTopicEmpty is returned when a topic is blank after trimming.
	ErrTopicEmpty = errors.New("topic: empty")

	// ErrTopicExists is returned when adding a topic already in the set,
	// builtin or user-added.
	ErrTopicExists = errors.New("topic: already exists")

	// ErrTopicProtected is returned when removing a builtin topic.
	ErrTopicProtected = errors.New("topic: builtin topics cannot be removed")

	// ErrTopicNotFound is returned when removing a topic that is not in the set.
	ErrTopicNotFound = errors.New("topic: not found")

	// ErrPersistenceCorrupt describes stored topics that could not be read
	// or parsed. Load recovers from it by falling back to the builtins.
	ErrPersistenceCorrupt = errors.New("topic store: persisted data unreadable")

	// ErrPersistFailed is returned when saving the user topics fails.
	// The in-memory change has already been applied.
	ErrPersistFailed = errors.New("topic store: persist failed")

	// ErrNotConnected is returned when publishing without a live session.
	ErrNotConnected = errors.New("session: not connected")

	// ErrSessionActive is returned by Connect while a session is connecting or connected.
	ErrSessionActive = errors.New("session: already connecting or connected")

	// ErrLevelOutOfRange is returned when a level command is outside 0..31.
	ErrLevelOutOfRange = errors.New("control: level out of range")

	// ErrStopped is returned when the controller event loop is not running.
	ErrStopped = errors.New("dashboard: controller stopped")
)
