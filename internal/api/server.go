package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/blockboard/internal/board"
)

// Server is the HTTP API over the task board.
type Server struct {
	router chi.Router
	board  *board.Board
	log    *slog.Logger
	apiKey string
}

// NewServer creates and configures the HTTP server. Every /api route requires
// apiKey as a bearer token.
func NewServer(b *board.Board, log *slog.Logger, apiKey string) *Server {
	s := &Server{
		board:  b,
		log:    log.With("component", "api"),
		apiKey: apiKey,
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
		r.Use(AuthMiddleware(s.apiKey, s.log))

		r.Get("/api/board", s.handleGetBoard)
		r.Post("/api/board/tasks", s.handleAddToCategory)
		r.Get("/api/week", s.handleGetWeek)
		r.Post("/api/week/tasks", s.handleAddToDay)

		r.Post("/api/tasks/{nodeID}/move", s.handleMoveTask)
		r.Delete("/api/tasks/{nodeID}", s.handleDeleteTask)

		r.Get("/api/backlog", s.handleGetBacklog)
		r.Post("/api/backlog", s.handleAddToBacklog)

		r.Get("/api/applications", s.handleGetApplications)
		r.Post("/api/applications", s.handleAddApplication)
		r.Get("/api/contacts", s.handleGetContacts)
		r.Post("/api/contacts", s.handleAddContact)

		r.Get("/api/moves", s.handleListMoves)
		r.Post("/api/moves/reconcile", s.handleReconcile)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
