// Package dashboard serves scrape statistics over HTTP as JSON.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"redscraper/pkg/database"
	"redscraper/pkg/logger"
)

// Server exposes stats and search over the mirrored database.
type Server struct {
	db     *database.DB
	router chi.Router
	logger logger.Logger
}

// New creates a dashboard server over the given database.
func New(db *database.DB, log logger.Logger) *Server {
	s := &Server{db: db, logger: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/stats", s.handleStats)
	r.Get("/api/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)

	s.router = r
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats()
	if err != nil {
		s.logger.WithError(err).Error("Stats query failed")
		writeError(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.SearchFilter{
		Query:    q.Get("q"),
		Target:   q.Get("target"),
		Author:   q.Get("author"),
		PostType: q.Get("type"),
	}
	if minScore := q.Get("min_score"); minScore != "" {
		n, err := strconv.Atoi(minScore)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_score must be an integer")
			return
		}
		filter.MinScore = n
	}

	results, err := s.db.SearchPosts(filter)
	if err != nil {
		s.logger.WithError(err).Error("Search query failed")
		writeError(w, http.StatusInternalServerError, "search query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
