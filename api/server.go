/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route definitions. This
  is the wiring layer between URLs and handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the console frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Get("/{id}", h.GetRecord)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.CreatePayment)
			r.Post("/{id}/settlements", h.RecordSettlement)
		})

		r.Route("/incidents", func(r chi.Router) {
			r.Post("/", h.CreateIncident)
			r.Post("/{id}/justify", h.Justify)
			r.Post("/{id}/unjustified", h.MarkUnjustified)
			r.Post("/{id}/notify", h.NotifyGuardian)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", h.CreateCard)
			r.Post("/{id}/submit", h.SubmitCard)
			r.Post("/{id}/validate", h.ValidateCard)
			r.Post("/{id}/print", h.PrintCard)
		})

		r.Route("/bulk", func(r chi.Router) {
			r.Post("/justify", h.BulkJustify)
			r.Post("/reminders", h.BulkRemind)
		})

		r.Get("/analytics", h.Analytics)
		r.Get("/reports/rows", h.ReportRows)
	})

	return r
}
