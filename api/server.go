/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*      User accounts
  /api/clients/*    Client profiles, balances, payments
  /api/walkers/*    Walker profiles, earnings, payouts
  /api/pets/*       Pet registry
  /api/walks/*      Walk scheduling and lifecycle
  /api/messages/*   User-to-user messaging
  /api/scenarios/*  Demo data loaders (development only)
  /api/admin/*      Reconciliation sweeps

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

	r.Route("/api", func(r chi.Router) {
		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/balances", h.ListClientBalances)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Get("/{id}/pets", h.ListClientPets)
			r.Post("/{id}/payments", h.RecordClientPayment)
		})

		// Walker routes
		r.Route("/walkers", func(r chi.Router) {
			r.Get("/", h.ListWalkers)
			r.Post("/", h.CreateWalker)
			r.Get("/{id}", h.GetWalker)
			r.Put("/{id}", h.UpdateWalker)
			r.Get("/{id}/earnings", h.ListWalkerEarnings)
			r.Get("/{id}/earnings/unpaid", h.ListUnpaidWalkerEarnings)
			r.Get("/{id}/payments", h.ListWalkerPayments)
			r.Post("/{id}/payments", h.PayWalker)
		})

		// Pet routes
		r.Route("/pets", func(r chi.Router) {
			r.Get("/", h.ListPets)
			r.Post("/", h.CreatePet)
			r.Get("/{id}", h.GetPet)
			r.Put("/{id}", h.UpdatePet)
		})

		// Walk routes
		r.Route("/walks", func(r chi.Router) {
			r.Get("/", h.ListWalks)
			r.Post("/", h.CreateWalk)
			r.Get("/upcoming", h.UpcomingWalks)
			r.Get("/{id}", h.GetWalk)
			r.Put("/{id}", h.UpdateWalk)
			r.Delete("/{id}", h.DeleteWalk)
			r.Get("/{id}/photos", h.ListWalkPhotos)
			r.Post("/{id}/photos", h.AddWalkPhoto)
		})

		// Message routes
		r.Route("/messages", func(r chi.Router) {
			r.Post("/", h.SendMessage)
			r.Get("/user/{id}", h.ListUserMessages)
			r.Post("/{id}/read", h.MarkMessageRead)
		})

		// Demo scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconcile", h.Reconcile)
			r.Post("/reconcile/outstanding", h.ReconcileOutstanding)
			r.Post("/reconcile/completed", h.ReconcileCompleted)
			r.Post("/reconcile/balances", h.ReconcileBalances)
			r.Post("/reconcile/earnings", h.ReconcileEarnings)
		})
	})

	return r
}
