package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and all API routes.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link", "Content-Disposition"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/records/upload", h.HandleUploadRecords)

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/", h.HandleAnalysis)
			r.Get("/heatmap", h.HandleHeatmap)
			r.Get("/hours", h.HandleHours)
			r.Get("/days", h.HandleDays)
			r.Get("/export", h.HandleExport)
		})

		r.Get("/filters", h.HandleFilters)
		r.Post("/notify", h.HandleNotify)
	})

	return r
}
