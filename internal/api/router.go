// TCG Atlas - Multi-Game Trading Card Catalog and Search API
// Copyright 2026 TCG Atlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tcgatlas/tcgatlas

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcgatlas/tcgatlas/internal/config"
	"github.com/tcgatlas/tcgatlas/internal/middleware"
)

// Router wires the handler set into the chi route tree.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router over the given handlers.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// rate limit profiles per route group
var (
	rateLimitHealth = rateLimitProfile{requests: 1000, window: time.Minute}
	rateLimitIngest = rateLimitProfile{requests: 10, window: time.Minute}
)

type rateLimitProfile struct {
	requests int
	window   time.Duration
}

// Setup builds the complete HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))

	// Health endpoints get a permissive limit so monitoring can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.rateLimit(rateLimitHealth))
		r.Use(router.queryTimeout())
		r.Get("/", router.handler.Health)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Catalog query endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.defaultRateLimit())
		r.Use(router.queryTimeout())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/cards", router.handler.Cards)
		r.Get("/cards/filters", router.handler.CardFilters)
		r.Get("/cards/{id}", router.handler.CardByID)
		r.Get("/sets", router.handler.Sets)
		r.Get("/sets/{id}", router.handler.SetByID)
	})

	// Ingest triggers: bearer-secret protected, strictly rate limited since
	// a run is expensive and long-lived. No queryTimeout here: the response
	// is the run summary, and a run legitimately takes minutes.
	r.Route("/api/v1/admin/ingest", func(r chi.Router) {
		r.Use(router.rateLimit(rateLimitIngest))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/", router.handler.IngestAll)
		r.Post("/pokemon/prices", router.handler.IngestPokemonPrices)
		r.Post("/{source}", router.handler.IngestSource)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// queryTimeout bounds query-path requests by cancelling their context after
// the configured server timeout. Storage calls honor the context, so a stuck
// query surfaces as a generic query failure.
func (router *Router) queryTimeout() func(http.Handler) http.Handler {
	if router.cfg.Server.Timeout <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return chimiddleware.Timeout(router.cfg.Server.Timeout)
}

// defaultRateLimit applies the configured per-IP request limit.
func (router *Router) defaultRateLimit() func(http.Handler) http.Handler {
	return router.rateLimit(rateLimitProfile{
		requests: router.cfg.Security.RateLimitReqs,
		window:   router.cfg.Security.RateLimitWindow,
	})
}

// rateLimit builds a per-IP limiter for one route group; a no-op when rate
// limiting is disabled (tests, single-operator deployments).
func (router *Router) rateLimit(profile rateLimitProfile) func(http.Handler) http.Handler {
	if router.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(profile.requests, profile.window)
}
