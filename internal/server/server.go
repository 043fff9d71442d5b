// Package server exposes the workforce over HTTP: chat endpoints with
// optional SSE streaming, company and agent listings, and the run ledger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/workforcehq/workforce/internal/company"
	"github.com/workforcehq/workforce/internal/config"
	"github.com/workforcehq/workforce/internal/ledger"
	"github.com/workforcehq/workforce/internal/observe"
	"github.com/workforcehq/workforce/internal/provider"
	"github.com/workforcehq/workforce/internal/session"
)

// Server is the HTTP gateway. It is safe for concurrent use; every chat
// request gets its own session.
type Server struct {
	cfg      *config.Config
	provider provider.LLMProvider
	ledger   *ledger.Service
	notify   session.Observer

	mu         sync.Mutex
	publishers map[string]*observe.KafkaPublisher
}

// New creates a server. ledger and notify may be nil.
func New(cfg *config.Config, p provider.LLMProvider, led *ledger.Service, notify session.Observer) *Server {
	return &Server{
		cfg:        cfg,
		provider:   p,
		ledger:     led,
		notify:     notify,
		publishers: make(map[string]*observe.KafkaPublisher),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/companies/{company}/chat", s.handleChat)
	mux.HandleFunc("GET /api/suggested-prompts", s.handleSuggestedPrompts)
	mux.HandleFunc("GET /api/companies/{company}/suggested-prompts", s.handleSuggestedPrompts)

	mux.HandleFunc("GET /api/companies", s.handleCompanies)
	mux.HandleFunc("GET /api/companies/{company}", s.handleCompany)
	mux.HandleFunc("GET /api/companies/{company}/agents", s.handleAgents)

	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{run_id}", s.handleRun)

	return corsMiddleware(mux)
}

// ListenAndServe runs the gateway until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.closePublishers()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	companies, _ := company.List(s.cfg.Paths.DataDir)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   "AI Workforce Orchestrator",
		"companies": companies,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	companies, _ := company.List(s.cfg.Paths.DataDir)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"companies_available": companies,
	})
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	ids, err := company.List(s.cfg.Paths.DataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	companies := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		name := id
		if data, err := company.Load(s.cfg.Paths.DataDir, id); err == nil && data.Company.Name != "" {
			name = data.Company.Name
		}
		companies = append(companies, map[string]string{"id": id, "name": name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadCompany(w, r.PathValue("company"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, data.Company)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadCompany(w, r.PathValue("company"))
	if !ok {
		return
	}
	reg, err := data.Registry()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hierarchy := make(map[string]company.AgentNode, reg.Count())
	for _, id := range reg.IDs() {
		node, _ := reg.Node(id)
		hierarchy[id] = node
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"company_id":  data.ID,
		"hierarchy":   hierarchy,
		"entry_point": reg.Entry(),
	})
}

func (s *Server) handleSuggestedPrompts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("company")
	if id == "" {
		id = s.defaultCompany()
	}
	data, ok := s.loadCompany(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": company.SuggestedPrompts(data)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusNotFound, "run ledger disabled")
		return
	}
	runs, err := s.ledger.ListRuns(0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusNotFound, "run ledger disabled")
		return
	}
	run, handoffs, err := s.ledger.GetRun(r.PathValue("run_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": run, "handoffs": handoffs})
}

// loadCompany loads a company or writes a 404 and returns ok=false.
func (s *Server) loadCompany(w http.ResponseWriter, id string) (*company.Data, bool) {
	data, err := company.Load(s.cfg.Paths.DataDir, id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Company '%s' not found", id))
		return nil, false
	}
	return data, true
}

func (s *Server) defaultCompany() string {
	if s.cfg.Run.DefaultCompany != "" {
		return s.cfg.Run.DefaultCompany
	}
	ids, err := company.List(s.cfg.Paths.DataDir)
	if err != nil || len(ids) == 0 {
		return "solaris"
	}
	return ids[0]
}

// publisherFor returns the shared Kafka trace publisher for a company,
// creating it on first use. Returns nil when observation is disabled.
func (s *Server) publisherFor(companyID string) *observe.KafkaPublisher {
	if !s.cfg.Observe.Enabled || s.cfg.Observe.Brokers == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.publishers[companyID]; ok {
		return p
	}
	topic := observe.TraceTopic(s.cfg.Observe.TopicPrefix, companyID)
	p := observe.NewKafkaPublisher(s.cfg.Observe.Brokers, topic)
	s.publishers[companyID] = p
	return p
}

func (s *Server) closePublishers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.publishers {
		if err := p.Close(); err != nil {
			slog.Warn("close trace publisher", "company", id, "error", err)
		}
	}
	s.publishers = make(map[string]*observe.KafkaPublisher)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
