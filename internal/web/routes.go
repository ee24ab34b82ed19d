package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/imagehash/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	hashHandler := handlers.NewHashHandler(s.config)
	compareHandler := handlers.NewCompareHandler(s.config)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/algorithms", handlers.ListAlgorithms)

		r.Post("/hash/{algorithm}", hashHandler.Hash)
		r.Post("/compare", compareHandler.Compare)
	})
}
