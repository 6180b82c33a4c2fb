package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"harvestmind/advisory"
	"harvestmind/auth"
	"harvestmind/dataset"
)

// Dependencies collects everything the HTTP layer delegates to.
type Dependencies struct {
	Sessions    *auth.Manager
	Tokens      *auth.TokenIssuer
	Predictions advisory.PredictionService
	Datasets    *dataset.Store

	AllowedOrigins []string
}

// NewRouter wires the HTTP routes exposed by the backend. Role gating
// mirrors the dashboard's navigation: predictions and uploads are open
// to every authenticated role, the research listing only to government
// and researcher users.
func NewRouter(logger *slog.Logger, deps Dependencies) http.Handler {
	h := &handlers{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(deps.AllowedOrigins))
	}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/register", h.register)
		r.Post("/auth/logout", h.logout)
		r.Get("/auth/session", h.session)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(deps.Tokens, logger))

			r.Post("/predictions/yield", h.predictYield)
			r.Post("/disease/analyze", h.analyzeDisease)
			r.Post("/datasets", h.uploadDataset)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(auth.RoleGovernment, auth.RoleResearcher))
				r.Get("/datasets", h.listDatasets)
			})
		})
	})

	return r
}
