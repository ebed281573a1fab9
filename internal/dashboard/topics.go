package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// KeyValueStore is the persistence substrate for the user topic list.
// kvstore.SQLiteStore and kvstore.MemoryStore satisfy it.
type KeyValueStore interface {
	// Get returns the stored value; found is false on first run.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set replaces the value under key.
	Set(ctx context.Context, key, value string) error
}

// Change is the delta produced by a topic store mutation.
type Change struct {
	Added   []string
	Removed []string
}

// IsEmpty reports whether the change adds and removes nothing.
func (c Change) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// TopicView is one row of the rendered topic list.
type TopicView struct {
	Topic   string `json:"topic"`
	Builtin bool   `json:"builtin"`
}

// TopicStore owns the working topic set: the fixed builtin topics followed
// by user-added topics in the order they were added. Only the user topics
// are persisted, as a JSON array of strings under a single key.
//
// Thread Safety: not safe for concurrent use. The Controller confines it
// to its event loop.
type TopicStore struct {
	store    KeyValueStore
	key      string
	builtins []string
	builtin  map[string]struct{}
	topics   []string
}

// NewTopicStore creates a store holding only the builtins. Duplicate and
// blank builtins are dropped. Call Load to merge persisted user topics.
func NewTopicStore(store KeyValueStore, key string, builtins []string) *TopicStore {
	s := &TopicStore{
		store:   store,
		key:     key,
		builtin: make(map[string]struct{}, len(builtins)),
	}
	for _, t := range builtins {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := s.builtin[t]; dup {
			continue
		}
		s.builtin[t] = struct{}{}
		s.builtins = append(s.builtins, t)
	}
	s.topics = slices.Clone(s.builtins)
	return s
}

// Load replaces the working set with the builtins followed by the
// persisted user topics.
//
// The returned topics are always usable. When the stored value cannot be
// read or parsed the set falls back to the builtins alone and diag wraps
// ErrPersistenceCorrupt; callers log it and carry on.
func (s *TopicStore) Load(ctx context.Context) (topics []string, diag error) {
	s.topics = slices.Clone(s.builtins)

	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		return s.Topics(), fmt.Errorf("%w: %w", ErrPersistenceCorrupt, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return s.Topics(), nil
	}

	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return s.Topics(), fmt.Errorf("%w: %w", ErrPersistenceCorrupt, err)
	}

	for _, t := range stored {
		t = strings.TrimSpace(t)
		if t == "" || s.contains(t) {
			continue
		}
		s.topics = append(s.topics, t)
	}
	return s.Topics(), nil
}

// Add appends topic to the set and persists the user topics.
//
// Returns ErrTopicEmpty or ErrTopicExists without changing state. An error
// wrapping ErrPersistFailed comes with a non-empty Change: the topic was
// added in memory but could not be saved.
func (s *TopicStore) Add(ctx context.Context, topic string) (Change, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Change{}, ErrTopicEmpty
	}
	if s.contains(topic) {
		return Change{}, fmt.Errorf("%w: %s", ErrTopicExists, topic)
	}

	s.topics = append(s.topics, topic)
	return Change{Added: []string{topic}}, s.persist(ctx)
}

// Remove deletes a user topic and persists the user topics.
//
// Builtins yield ErrTopicProtected and unknown topics ErrTopicNotFound,
// both without changing state. ErrPersistFailed behaves as in Add.
func (s *TopicStore) Remove(ctx context.Context, topic string) (Change, error) {
	if s.IsBuiltin(topic) {
		return Change{}, ErrTopicProtected
	}
	i := slices.Index(s.topics, topic)
	if i < 0 {
		return Change{}, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}

	s.topics = slices.Delete(s.topics, i, i+1)
	return Change{Removed: []string{topic}}, s.persist(ctx)
}

// Clear resets the set to exactly the builtins and persists an empty
// user list. Removed lists the user topics that were dropped.
func (s *TopicStore) Clear(ctx context.Context) (Change, error) {
	removed := s.UserTopics()
	s.topics = slices.Clone(s.builtins)
	return Change{Removed: removed}, s.persist(ctx)
}

// Topics returns a copy of the working set in display order.
func (s *TopicStore) Topics() []string {
	return slices.Clone(s.topics)
}

// UserTopics returns the working set minus the builtins. It is never nil.
func (s *TopicStore) UserTopics() []string {
	user := make([]string, 0, len(s.topics))
	for _, t := range s.topics {
		if !s.IsBuiltin(t) {
			user = append(user, t)
		}
	}
	return user
}

// Views returns the working set annotated with builtin flags.
func (s *TopicStore) Views() []TopicView {
	views := make([]TopicView, len(s.topics))
	for i, t := range s.topics {
		views[i] = TopicView{Topic: t, Builtin: s.IsBuiltin(t)}
	}
	return views
}

// IsBuiltin reports whether topic belongs to the fixed builtin set.
func (s *TopicStore) IsBuiltin(topic string) bool {
	_, ok := s.builtin[topic]
	return ok
}

func (s *TopicStore) contains(topic string) bool {
	return slices.Contains(s.topics, topic)
}

// persist writes the user topics. The builtins are subtracted here, on
// every save, so they can never reach storage.
func (s *TopicStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.UserTopics())
	if err != nil {
		return fmt.Errorf("%w: encoding topics: %w", ErrPersistFailed, err)
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}
