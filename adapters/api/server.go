package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gomatch/app"
	"gomatch/internal"
	"gomatch/ports"
)

// Server exposes the matching pipeline over HTTP. The repository is
// optional; without it the result endpoints return 404.
type Server struct {
	router  *chi.Mux
	service *app.MatchService
	repo    ports.ResultRepository
	logger  *internal.Logger
}

// NewServer creates the HTTP server and wires its routes
func NewServer(service *app.MatchService, repo ports.ResultRepository) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		repo:    repo,
		logger:  internal.DefaultLogger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/match", s.handleMatch)
	s.router.Get("/api/results", s.handleListResults)
	s.router.Get("/api/results/{id}", s.handleGetResult)
	s.router.Delete("/api/results/{id}", s.handleDeleteResult)
}

// Router returns the underlying handler for testing
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the given port
func (s *Server) Start(port string) error {
	s.logger.Info("starting match API server on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}
