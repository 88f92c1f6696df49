package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abram-kaleb/slidenauli/internal/config"
	"github.com/abram-kaleb/slidenauli/internal/history"
	"github.com/abram-kaleb/slidenauli/internal/pipeline"
	"github.com/abram-kaleb/slidenauli/internal/session"
	"github.com/abram-kaleb/slidenauli/internal/stats"
)

// Server is the HTTP API server for slidenauli.
type Server struct {
	router   chi.Router
	pipeline *pipeline.Pipeline
	sessions *session.Store
	stats    *stats.Render
	history  *history.Store
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. stats and hist may be
// nil; their endpoints then answer 503.
func NewServer(p *pipeline.Pipeline, sessions *session.Store, st *stats.Render, hist *history.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		pipeline: p,
		sessions: sessions,
		stats:    st,
		history:  hist,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/", s.handleReplaceFiles)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/sections", s.handleSections)
			r.Post("/render", s.handleRender)
		})

		r.Post("/api/classify", s.handleClassify)
		r.Get("/api/dialects", s.handleDialects)
		r.Get("/api/stats/render", s.handleRenderStats)
		r.Get("/api/renders", s.handleRenders)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
