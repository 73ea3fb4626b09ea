// Package dashboard serves the engine's HTTP status API.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/storage"
	"github.com/tradefly/optionsignals/internal/tracker"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr      string
	AuthToken string
}

// Server exposes positions, signals, and statistics over HTTP.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	storage   storage.Interface
	tracker   *tracker.Tracker
	logger    *logrus.Logger
	addr      string
	authToken string
}

// NewServer builds the server and its routes.
func NewServer(cfg Config, store storage.Interface, tr *tracker.Tracker, logger *logrus.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		storage:   store,
		tracker:   tr,
		logger:    logger,
		addr:      cfg.Addr,
		authToken: cfg.AuthToken,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if s.authToken != "" {
		s.router.Use(s.authMiddleware)
	}

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/positions", s.handleActivePositions)
	s.router.Get("/api/positions/closed", s.handleClosedPositions)
	s.router.Get("/api/positions/{id}", s.handlePosition)
	s.router.Get("/api/positions/{id}/exits", s.handleExitSignals)
	s.router.Post("/api/positions/{id}/close", s.handleClosePosition)
	s.router.Get("/api/signals", s.handleSignals)
	s.router.Get("/api/stats", s.handleStats)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.authToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}
	s.logger.Infof("Starting dashboard server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleActivePositions(w http.ResponseWriter, _ *http.Request) {
	positions := s.storage.GetActivePositions()
	if positions == nil {
		positions = []models.Position{}
	}
	s.writeJSON(w, positions)
}

func (s *Server) handleClosedPositions(w http.ResponseWriter, _ *http.Request) {
	positions := s.storage.GetClosedPositions()
	if positions == nil {
		positions = []models.Position{}
	}
	s.writeJSON(w, positions)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pos, err := s.storage.GetPositionByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Failed to load position")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, pos)
}

func (s *Server) handleExitSignals(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pos, err := s.storage.GetPositionByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	signals := s.tracker.CheckExitSignals(pos)
	if signals == nil {
		signals = []models.ExitSignal{}
	}
	s.writeJSON(w, signals)
}

type closeRequest struct {
	Price float64 `json:"price"`
}

func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.Price < 0 {
		http.Error(w, "price must not be negative", http.StatusBadRequest)
		return
	}
	pos, err := s.tracker.ClosePosition(id, req.Price)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Error("Failed to close position")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, pos)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	signals := s.storage.GetRecentSignals(limit)
	if signals == nil {
		signals = []models.Signal{}
	}
	s.writeJSON(w, signals)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.storage.GetStatistics())
}
