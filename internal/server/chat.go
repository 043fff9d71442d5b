package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/runner"
	"github.com/workforcehq/workforce/internal/session"
)

type chatRequest struct {
	Message   string `json:"message"`
	CompanyID string `json:"company_id,omitempty"`
	Stream    *bool  `json:"stream,omitempty"`
}

type chatResponse struct {
	Response       string          `json:"response"`
	Steps          []session.Event `json:"steps"`
	AgentsInvolved []string        `json:"agents_involved"`
	CompanyID      string          `json:"company_id"`
	RunID          string          `json:"run_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	companyID := r.PathValue("company")
	if companyID == "" {
		companyID = req.CompanyID
	}
	if companyID == "" {
		companyID = s.defaultCompany()
	}

	data, ok := s.loadCompany(w, companyID)
	if !ok {
		return
	}
	sess, err := s.newSession(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stream := true
	if req.Stream != nil {
		stream = *req.Stream
	}
	if stream {
		s.streamChat(w, r, sess, req.Message, companyID)
	} else {
		s.processChat(w, r, sess, req.Message, companyID)
	}
}

// newSession wires a fresh session for one request.
func (s *Server) newSession(data *company.Data) (*session.Session, error) {
	reg, err := data.Registry()
	if err != nil {
		return nil, fmt.Errorf("company %s: %w", data.ID, err)
	}
	exec := runner.NewLLMExecutor(s.provider, reg, data, runner.Options{
		Model:       s.cfg.Model.Name,
		MaxTokens:   s.cfg.Model.MaxTokens,
		Temperature: s.cfg.Model.Temperature,
	})

	var observers []session.Observer
	if p := s.publisherFor(data.ID); p != nil {
		observers = append(observers, p)
	}
	if s.notify != nil {
		observers = append(observers, s.notify)
	}

	return session.New(session.Options{
		Company:       data,
		Executor:      exec,
		ArtifactsDir:  s.cfg.Paths.ArtifactsDir,
		MaxIterations: s.cfg.Run.MaxIterations,
		MaxTurns:      s.cfg.Run.MaxTurns,
		Model:         s.cfg.Model.Name,
		Observers:     observers,
	})
}

// streamChat emits the run's events as Server-Sent Events. The client
// disconnecting cancels the run through the request context.
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, sess *session.Session, message, companyID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range sess.RunStream(r.Context(), message) {
		payload, err := json.Marshal(ev)
		if err != nil {
			slog.Warn("marshal event", "run_id", sess.RunID(), "error", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
		flusher.Flush()
	}

	s.recordRun(sess, message, companyID)
}

// processChat runs to completion and returns the full event list.
func (s *Server) processChat(w http.ResponseWriter, r *http.Request, sess *session.Session, message, companyID string) {
	var steps []session.Event
	for ev := range sess.RunStream(r.Context(), message) {
		steps = append(steps, ev)
	}
	s.recordRun(sess, message, companyID)

	res := sess.Result()
	if res.Status == session.StatusErrored {
		writeError(w, http.StatusInternalServerError, res.Response)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:       res.Response,
		Steps:          steps,
		AgentsInvolved: res.AgentsInvolved,
		CompanyID:      companyID,
		RunID:          res.RunID,
	})
}

func (s *Server) recordRun(sess *session.Session, goal, companyID string) {
	if s.ledger == nil {
		return
	}
	res := sess.Result()
	if err := s.ledger.RecordRun(sess.Record(), goal, res.ArtifactsPath); err != nil {
		slog.Warn("record run", "run_id", res.RunID, "company", companyID, "error", err)
	}
}
