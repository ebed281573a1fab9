package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/gray-logic-dashboard/internal/dashboard"
)

// maxTopicLen bounds topic strings accepted from the API. MQTT allows
// 65535 bytes but no dashboard topic comes close.
const maxTopicLen = 1024

type addTopicRequest struct {
	Topic string `json:"topic"`
}

type clearTopicsRequest struct {
	Confirm bool `json:"confirm"`
}

// writeControllerError maps dashboard errors that every handler can hit.
// It reports false when err was not handled.
func writeControllerError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, dashboard.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeUnavailable(w, "dashboard is not running")
		return true
	}
	return false
}

// handleGetState returns a full snapshot: status, topics, readings and log.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		if !writeControllerError(w, err) {
			writeInternalError(w, "failed to read dashboard state")
		}
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleListTopics returns the working topic set with builtin flags.
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.controller.Topics(r.Context())
	if err != nil {
		if !writeControllerError(w, err) {
			writeInternalError(w, "failed to list topics")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topics": topics,
		"count":  len(topics),
	})
}

// handleAddTopic adds a user topic.
func (s *Server) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var req addTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if len(topic) > maxTopicLen {
		writeBadRequest(w, "topic is too long")
		return
	}

	if err := s.controller.AddTopic(r.Context(), topic); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrTopicEmpty):
			writeBadRequest(w, "topic is required")
		case errors.Is(err, dashboard.ErrTopicExists):
			writeConflict(w, "topic already exists")
		case writeControllerError(w, err):
		default:
			writeInternalError(w, "failed to add topic")
		}
		return
	}

	s.logger.Info("topic added", "topic", topic, "by", actor(r))
	writeJSON(w, http.StatusCreated, map[string]string{"topic": topic})
}

// handleRemoveTopic removes a user topic named by the "topic" query
// parameter. Topics contain slashes, so they are not path segments.
// Builtin topics are silently kept and still answer 204.
func (s *Server) handleRemoveTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeBadRequest(w, "topic query parameter is required")
		return
	}
	if len(topic) > maxTopicLen {
		writeBadRequest(w, "topic is too long")
		return
	}

	err := s.controller.RemoveTopic(r.Context(), topic)
	switch {
	case err == nil:
		s.logger.Info("topic removed", "topic", topic, "by", actor(r))
	case errors.Is(err, dashboard.ErrTopicProtected):
		s.logger.Debug("ignoring removal of builtin topic", "topic", topic)
	case errors.Is(err, dashboard.ErrTopicNotFound):
		writeNotFound(w, "topic not found")
		return
	case writeControllerError(w, err):
		return
	default:
		writeInternalError(w, "failed to remove topic")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearTopics drops every user topic. The body must carry
// {"confirm": true}; the page asks the user before sending it.
func (s *Server) handleClearTopics(w http.ResponseWriter, r *http.Request) {
	var req clearTopicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !req.Confirm {
		writeBadRequest(w, "clearing topics requires confirm: true")
		return
	}

	removed, err := s.controller.ClearTopics(r.Context())
	if err != nil {
		if !writeControllerError(w, err) {
			writeInternalError(w, "failed to clear topics")
		}
		return
	}
	if removed == nil {
		removed = []string{}
	}

	s.logger.Info("user topics cleared", "removed", len(removed), "by", actor(r))
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
