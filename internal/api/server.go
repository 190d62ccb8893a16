// Package api exposes the HTTP interface for the insight service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lihongqing2001-gif/XhsInsight/internal/analysis"
	"github.com/lihongqing2001-gif/XhsInsight/internal/config"
	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"

	"go.uber.org/zap"
)

// Server wires HTTP handlers to the credential store and analysis service.
type Server struct {
	router      chi.Router
	credentials insight.CredentialStore
	service     *analysis.Service
	idGen       insight.IDGenerator
	clock       insight.Clock
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	credentials insight.CredentialStore,
	service *analysis.Service,
	idGen insight.IDGenerator,
	clock insight.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	s := &Server{
		credentials: credentials,
		service:     service,
		idGen:       idGen,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware(idGen))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/credentials", func(r chi.Router) {
			r.Post("/", s.addCredential)
			r.Get("/", s.listCredentials)
			r.Delete("/{credential_id}", s.invalidateCredential)
		})
		r.Route("/notes", func(r chi.Router) {
			r.Post("/analyze", s.analyzeNote)
			r.Get("/", s.listNotes)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The credential store is the only hard dependency at startup.
	if _, err := s.credentials.List(r.Context(), "readiness-probe"); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type addCredentialRequest struct {
	OwnerID string `json:"owner_id"`
	Value   string `json:"value"`
	Note    string `json:"note"`
}

func (s *Server) addCredential(w http.ResponseWriter, r *http.Request) {
	var req addCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.Value) == "" {
		s.writeError(w, http.StatusBadRequest, "owner_id and value are required")
		return
	}

	id, err := s.idGen.NewID()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "generate credential id")
		return
	}
	cred := insight.Credential{
		ID:        id,
		OwnerID:   req.OwnerID,
		Value:     req.Value,
		Note:      req.Note,
		Status:    insight.CredentialStatusActive,
		CreatedAt: s.clock.Now(),
	}
	if err := s.credentials.Add(r.Context(), cred); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("add credential: %v", err))
		return
	}
	s.writeJSON(w, http.StatusCreated, cred)
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		s.writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	creds, err := s.credentials.List(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list credentials")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

func (s *Server) invalidateCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "credential_id")
	if err := s.credentials.Invalidate(r.Context(), id); err != nil {
		if errors.Is(err, insight.ErrCredentialNotFound) {
			s.writeError(w, http.StatusNotFound, "credential not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "invalidate credential")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"credential_id": id,
		"status":        string(insight.CredentialStatusInvalid),
	})
}

type analyzeRequest struct {
	OwnerID string `json:"owner_id"`
	URL     string `json:"url"`
	Cookie  string `json:"cookie"`
}

func (s *Server) analyzeNote(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" || strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "owner_id and url are required")
		return
	}

	record, err := s.service.Analyze(r.Context(), req.OwnerID, req.URL, req.Cookie)
	if err != nil {
		s.writeError(w, analyzeStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// analyzeStatus maps pipeline errors onto HTTP status codes.
func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, insight.ErrPoolExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, insight.ErrRetriesExhausted):
		return http.StatusBadGateway
	case errors.Is(err, insight.ErrAuthRejected):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		s.writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	records, err := s.service.History(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "list notes")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"notes": records})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
