package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the public and authenticated project routes on r.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/health", handlers.healthHandler.check())

	r.Route("/projects", func(r chi.Router) {
		// Public reads
		r.Get("/", handlers.projectHandler.listProjects())
		r.Get("/tags", handlers.projectHandler.listTags())
		r.Get("/user/{userID}", handlers.projectHandler.listUserProjects())
		r.Get("/{projectID}", handlers.projectHandler.getProject())

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Post("/", handlers.projectHandler.createProject())
			r.Put("/{projectID}", handlers.projectHandler.updateProject())
			r.Delete("/{projectID}", handlers.projectHandler.deleteProject())

			r.Post("/{projectID}/like", handlers.engagementHandler.toggleLike())
			r.Post("/{projectID}/view", handlers.engagementHandler.addView())
		})
	})
}
