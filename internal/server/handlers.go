package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// handleHealth implements GET /health (spec §6).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

type ingestRequest struct {
	ID      string                 `json:"id"`
	Source  string                 `json:"source"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
	Headers map[string]string      `json:"headers"`
	TraceID string                 `json:"trace_id,omitempty"`
}

// handleIngest implements POST /ingest (spec §6). A malformed body returns
// HTTP 500 with a detail field; no outbox write happens for an event that
// never reaches the orchestrator (spec §7 "Ingress error").
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusInternalServerError, "malformed event: "+err.Error())
		return
	}
	if req.ID == "" || req.Type == "" {
		writeError(w, http.StatusInternalServerError, "malformed event: id and type are required")
		return
	}

	event := &eventing.Event{
		ID:      req.ID,
		Source:  req.Source,
		Type:    req.Type,
		Payload: req.Payload,
		Headers: req.Headers,
		TraceID: req.TraceID,
	}

	ctx, span := tracer.Start(r.Context(), "http.ingest")
	defer span.End()

	outcome, err := s.orch.HandleEvent(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("ingest handling failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "result": outcome})
}

type approveRequest struct {
	TraceID    string `json:"trace_id"`
	StepName   string `json:"step_name"`
	ApprovedBy string `json:"approved_by,omitempty"`
}

// handleApprove implements POST /approve (spec §4.7, §6).
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusInternalServerError, "malformed request: "+err.Error())
		return
	}
	if req.TraceID == "" || req.StepName == "" {
		writeError(w, http.StatusInternalServerError, "trace_id and step_name are required")
		return
	}

	approver := req.ApprovedBy
	if approver == "" {
		approver = "unknown"
	}
	s.approvals.Approve(req.TraceID, req.StepName, approver)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"approved": map[string]string{
			"trace_id": req.TraceID,
			"step":     req.StepName,
		},
	})
}

// handleConsumeStart implements POST /consume/start?group_id&topic (spec §6).
func (s *Server) handleConsumeStart(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("group_id")
	topic := r.URL.Query().Get("topic")
	if groupID == "" || topic == "" {
		writeError(w, http.StatusInternalServerError, "group_id and topic query parameters are required")
		return
	}
	if s.consumers == nil {
		writeError(w, http.StatusInternalServerError, "no broker configured")
		return
	}

	key := groupID + ":" + topic
	s.consumerMu.Lock()
	if stop, running := s.running[key]; running {
		stop()
	}
	s.consumerMu.Unlock()

	stop, err := s.consumers(groupID, topic)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.consumerMu.Lock()
	s.running[key] = stop
	s.consumerMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "group_id": groupID, "topic": topic})
}
