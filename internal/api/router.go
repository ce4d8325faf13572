// internal/api/router.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"membership-service/internal/api/handler"
)

// Handlers groups the resource handlers mounted under /api.
type Handlers struct {
	Accounts  *handler.AccountHandler
	Members   *handler.MemberHandler
	Locations *handler.LocationHandler
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter sets up and returns a new HTTP router.
// Request metrics are registered on reg, which /metrics also serves.
func NewRouter(h Handlers, store Pinger, reg *prometheus.Registry, requestTimeout time.Duration, logger zerolog.Logger) (http.Handler, error) {
	metrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)               // Add a request ID to the context
	r.Use(middleware.RealIP)                  // Use the real IP address
	r.Use(requestLogger(logger, metrics))     // Log HTTP requests through zerolog
	r.Use(middleware.Recoverer)               // Recover from panics and return 500
	r.Use(middleware.Timeout(requestTimeout)) // Bounds every store call made for the request

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(r.Context()); err != nil {
			logger.Warn().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.Accounts.ListAccounts)
			r.Post("/", h.Accounts.CreateAccount)
			r.Put("/", h.Accounts.UpdateAccount)
			r.Get("/{id}", h.Accounts.GetAccount)       // guid
			r.Delete("/{id}", h.Accounts.DeleteAccount) // uid
			r.Get("/{id}/members", h.Accounts.ListAccountMembers)
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.Members.ListMembers)
			r.Post("/", h.Members.CreateMember)
			r.Get("/{id}", h.Members.GetMember)
			r.Delete("/{id}", h.Members.DeleteMember)
			r.Delete("/{id}/members", h.Members.DeleteAllExceptPrimary) // account uid
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", h.Locations.ListLocations)
			r.Post("/", h.Locations.CreateLocation)
			r.Get("/{id}", h.Locations.GetLocation)
			r.Delete("/{id}", h.Locations.DeleteLocation)
		})
	})

	return r, nil
}
