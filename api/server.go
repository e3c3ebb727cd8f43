/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/disbursements/*  Lifecycle operations
  /api/payees/*         Payee registry
  /api/accounts/*       Chart of accounts
  /api/stats            Daily stats snapshot
  /api/activity         Recent activity feed
  /api/snapshot         Full-state resync
  /api/admin/*          Seeding

SECURITY NOTE:
  No authentication middleware. Session/login handling belongs to the
  surrounding layer, not this core.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Disbursement lifecycle
		r.Route("/disbursements", func(r chi.Router) {
			r.Get("/", h.ListDisbursements)
			r.Post("/", h.SubmitDisbursement)
			r.Get("/{id}", h.GetDisbursement)
			r.Delete("/{id}", h.DeleteDisbursement)
			r.Post("/{id}/approve", h.ApproveDisbursement)
			r.Post("/{id}/fail", h.FailDisbursement)
		})

		// Payee registry
		r.Route("/payees", func(r chi.Router) {
			r.Get("/", h.ListPayees)
			r.Post("/", h.CreatePayee)
			r.Put("/{id}", h.UpdatePayee)
			r.Delete("/{id}", h.DeletePayee)
		})

		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Put("/{code}", h.UpdateAccount)
			r.Delete("/{code}", h.DeleteAccount)
		})

		// Aggregates
		r.Get("/stats", h.GetStats)
		r.Get("/activity", h.GetActivity)
		r.Get("/snapshot", h.GetSnapshot)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed-accounts", h.SeedAccounts)
		})
	})

	return r
}
