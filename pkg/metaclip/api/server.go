package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/tendant/metaclip/pkg/metaclip"
	"github.com/tendant/metaclip/pkg/metaclip/hub"
)

// Server assembles the HTTP surface: item CRUD, file transfer, live events,
// and the health probe.
type Server struct {
	items *ItemsHandler
	files *FilesHandler
	hub   *hub.Hub
}

// NewServer creates a new HTTP server wrapper
func NewServer(service metaclip.Service, files *metaclip.FileServer, h *hub.Hub) *Server {
	return &Server{
		items: NewItemsHandler(service),
		files: NewFilesHandler(files),
		hub:   h,
	}
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/", s.handleHealth)

	// REST routes get a request timeout; the websocket route must not, since
	// its connections are long-lived by design.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Mount("/items", s.items.Routes())
		r.Mount("/file", s.files.Routes())
	})

	r.Get("/ws", s.hub.ServeHTTP)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}
