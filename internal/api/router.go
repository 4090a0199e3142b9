package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/handlers"
	custommiddleware "github.com/kariuki-dev/tenant-payment-agent/internal/api/middleware"
	"github.com/kariuki-dev/tenant-payment-agent/internal/config"
	"github.com/kariuki-dev/tenant-payment-agent/internal/service"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
)

// NewRouter creates and configures the HTTP router. onSessionChange is
// forwarded to the session handler so a tenant-identity change can tear
// down and reseed the reconciliation side.
func NewRouter(db *sql.DB, sessions session.Store, rentalService *service.RentalService, reconcileService *service.ReconcileService, onSessionChange func(), cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/rental", func(r chi.Router) {
			rentalHandler := handlers.NewRentalHandler(rentalService)
			r.Get("/", rentalHandler.Rental)
			r.Get("/summary", rentalHandler.Summary)
		})

		r.Route("/payment", func(r chi.Router) {
			paymentHandler := handlers.NewPaymentHandler(reconcileService)
			r.Post("/", paymentHandler.Submit)
			r.Get("/state", paymentHandler.State)
			r.Post("/reset", paymentHandler.Reset)
			r.Get("/receipt", paymentHandler.Receipt)
		})

		r.Route("/session", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(sessions, onSessionChange)
			r.Post("/", sessionHandler.Create)
			r.Delete("/", sessionHandler.Delete)
		})
	})

	return r
}
