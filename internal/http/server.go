// Package http serves the lifelog JSON API: aggregate views with sort,
// filter and drill-down selection, plus the record write surface.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"lifelog/internal/middleware/trace"
	"lifelog/internal/services"
	"lifelog/internal/storage"
)

// Repository is the write surface behind the create forms, plus the
// reference lists the forms are populated from. Nil when the configured
// backend is read-only.
type Repository interface {
	CreateEvent(ctx context.Context, ev storage.NewEvent) (int64, error)
	DeleteEvent(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, name string, hidden bool) (int64, error)
	CreatePerson(ctx context.Context, name string) (int64, error)
	CreateLocation(ctx context.Context, name, preciseAddress string) (int64, error)
	CreateMeasurement(ctx context.Context, name string) (int64, error)

	ListCategories(ctx context.Context) ([]storage.Category, error)
	ListPeople(ctx context.Context) ([]storage.Person, error)
	ListLocations(ctx context.Context) ([]storage.Location, error)
	ListMeasurements(ctx context.Context) ([]storage.Measurement, error)
}

type Server struct {
	http.Server

	summary        *services.SummaryService
	repo           Repository
	rateLimiter    *rateLimiter
	requestTimeout time.Duration
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. repo may be nil for read-only backends.
func NewServer(addr string, summary *services.SummaryService, repo Repository, requestTimeout time.Duration) *Server {
	s := &Server{
		summary:        summary,
		repo:           repo,
		rateLimiter:    newRateLimiter(),
		requestTimeout: requestTimeout,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/events", s.handleHomeFeed)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/views/{view}", s.handleView)
	mux.HandleFunc("GET /api/views/{view}/selection", s.handleCurrentSelection)
	mux.HandleFunc("POST /api/views/{view}/selection", s.handleSelect)

	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/people", s.handleListPeople)
	mux.HandleFunc("POST /api/people", s.handleCreatePerson)
	mux.HandleFunc("GET /api/locations", s.handleListLocations)
	mux.HandleFunc("POST /api/locations", s.handleCreateLocation)
	mux.HandleFunc("GET /api/measurements", s.handleListMeasurements)
	mux.HandleFunc("POST /api/measurements", s.handleCreateMeasurement)

	traceMW := trace.NewMiddleware(clientIP)
	s.Server = http.Server{
		Addr:           addr,
		Handler:        traceMW.Middleware(s.withRateLimit(mux)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	return s
}

// Shutdown gracefully stops the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
