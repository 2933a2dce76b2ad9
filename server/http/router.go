package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"cargo-recon/internal/config"
	"cargo-recon/internal/middleware"
	"cargo-recon/internal/pricing"
	recHnd "cargo-recon/internal/reconcile/handler"
	"cargo-recon/internal/staging"
	"cargo-recon/server/http/handlers"
)

// Services are the application components the routes call into.
type Services struct {
	Sessions *staging.Manager
	Pricing  *pricing.Service
}

func NewRouter(cfg config.Config, logger zerolog.Logger, svc Services) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) << 20))

	r.Get("/health", handlers.Health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", recHnd.CreateSession(svc.Sessions, cfg.MaxUploadMB))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recHnd.GetSession(svc.Sessions))
			r.Delete("/", recHnd.AbandonSession(svc.Sessions))
			r.Patch("/rows/{row}", recHnd.EditRow(svc.Sessions))
			r.Post("/rows/{row}/link", recHnd.LinkRow(svc.Sessions))
			r.Post("/review", recHnd.ReviewSession(svc.Sessions))
			r.Post("/commit", recHnd.CommitSession(svc.Sessions))
		})
	})

	r.Post("/pricing/calculate", recHnd.Calculate(cfg))

	r.Route("/shipments/{id}", func(r chi.Router) {
		r.Get("/", recHnd.GetShipment(svc.Pricing))
		r.Put("/volume", recHnd.UpdateVolume(svc.Pricing))
		r.Post("/adjustments", recHnd.AddAdjustment(svc.Pricing))
		r.Delete("/adjustments/{adjID}", recHnd.RemoveAdjustment(svc.Pricing))
	})

	return r
}
