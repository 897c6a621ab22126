package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
	"kvibe/internal/usecase"
)

// Server exposes the pipeline trigger and the public article endpoints.
type Server struct {
	router       *chi.Mux
	orchestrator *usecase.Orchestrator
	live         ports.LiveStore
	triggerToken string
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a server instance. The trigger token guards /api/pipeline;
// an empty token disables the endpoint entirely.
func New(orchestrator *usecase.Orchestrator, live ports.LiveStore, triggerToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		live:         live,
		triggerToken: triggerToken,
		logger:       logger.With("component", "server"),
		now:          time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/pipeline", s.handlePipeline)
	s.router.Get("/api/articles", s.handleArticles)
	s.router.Post("/api/articles/{id}/vote", s.handleVote)
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePipeline runs one orchestrator pass for the current wall-clock time.
// The external scheduler hits this every hour; authentication happens before
// any pipeline work so an unauthorized call has no side effects.
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	now := s.now()
	result, err := s.orchestrator.RunOnce(r.Context(), now)
	if err != nil {
		s.logger.Error("pipeline run failed", "phase", result.Phase, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.live.ListPublished(r.Context())
	if err != nil {
		s.logger.Error("list articles failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list articles"})
		return
	}
	if articles == nil {
		articles = []domain.LiveArticle{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid article id"})
		return
	}

	if err := s.live.IncrementLikes(r.Context(), id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "article not found"})
			return
		}
		s.logger.Error("vote failed", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record vote"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.triggerToken == "" {
		return false
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.triggerToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
