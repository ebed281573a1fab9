package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-dashboard/internal/dashboard"
)

// maxPayloadLen bounds free-form publish payloads.
const maxPayloadLen = 16 << 10

type levelRequest struct {
	Level *int `json:"level"`
}

type publishRequest struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// handlePublishLevel sends a slider level to the control topic.
func (s *Server) handlePublishLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Level == nil {
		writeBadRequest(w, "level is required")
		return
	}

	if err := s.controller.PublishLevel(r.Context(), *req.Level); err != nil {
		s.writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"level": *req.Level})
}

// handlePublish sends an arbitrary payload.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Topic) > maxTopicLen || len(req.Payload) > maxPayloadLen {
		writeBadRequest(w, "topic or payload is too long")
		return
	}

	if err := s.controller.Publish(r.Context(), req.Topic, req.Payload); err != nil {
		s.writePublishError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"topic": req.Topic})
}

func (s *Server) writePublishError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrLevelOutOfRange):
		writeBadRequest(w, "level must be between 0 and 31")
	case errors.Is(err, dashboard.ErrTopicEmpty):
		writeBadRequest(w, "topic is required")
	case errors.Is(err, dashboard.ErrNotConnected):
		writeUnavailable(w, "connect to the MQTT broker first")
	case writeControllerError(w, err):
	default:
		s.logger.Warn("publish failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "broker rejected the publish")
	}
}

// handleConnect starts a connect attempt when the session is down.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	err := s.controller.Connect(r.Context())
	switch {
	case err == nil:
		s.logger.Info("connect requested", "by", actor(r))
		writeJSON(w, http.StatusAccepted, map[string]string{"state": s.controller.State().String()})
	case errors.Is(err, dashboard.ErrSessionActive):
		writeConflict(w, "session is already connecting or connected")
	case writeControllerError(w, err):
	default:
		writeInternalError(w, "failed to start connect")
	}
}
