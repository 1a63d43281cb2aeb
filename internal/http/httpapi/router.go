package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fundhub/internal/http/handlers"
	"fundhub/internal/infra"
	"fundhub/internal/middleware"
)

// NewRouter mounts the public API, the wallet-authenticated API and the
// chain gateway webhooks.
func NewRouter(app *handlers.App, cfg *infra.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/readyz", app.Ready)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/whitelist", app.WhitelistGet)
		r.Get("/tokens", app.TokensList)

		// Anonymous callers see milestones without actions.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthJWT(cfg.JWTSecret))
			r.Get("/milestones/{id}", app.MilestonesGet)
			r.Get("/milestones/{id}/feed", app.MilestonesFeed)
			r.Get("/donations/{id}/commit-window", app.DonationsCommitWindow)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
			r.Post("/milestones/{id}/transitions", app.MilestonesTransition)
			r.Post("/milestones/{id}/withdraw", app.MilestonesWithdraw)
			r.Get("/delegations/sources", app.DelegationsSources)
			r.Post("/delegations/preview", app.DelegationsPreview)
			r.Post("/delegations", app.DelegationsSubmit)
		})

		r.Route("/chain", func(r chi.Router) {
			r.Use(middleware.SharedSecret(middleware.ChainSecretHeader, cfg.ChainWebhookSecret))
			r.Post("/milestones/{id}/events", app.ChainEvent)
			r.Post("/milestones/{id}/confirmations", app.ChainConfirmation)
		})
	})

	return r
}
