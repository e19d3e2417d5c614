// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler        *Handler
	guard          *auth.Guard
	realtime       http.Handler
	chiMiddleware  *ChiMiddleware
	requestTimeout time.Duration
}

// NewRouter creates a Router. realtime serves GET /api/ws; a nil realtime
// answers 503.
func NewRouter(cfg *config.Config, handler *Handler, guard *auth.Guard, realtime http.Handler) *Router {
	if realtime == nil {
		realtime = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Realtime service unavailable")
		})
	}
	return &Router{
		handler:        handler,
		guard:          guard,
		realtime:       realtime,
		chiMiddleware:  NewChiMiddleware(NewChiMiddlewareConfig(&cfg.Security)),
		requestTimeout: cfg.Server.RequestTimeout,
	}
}

// ErrorResponder writes service errors in the API's JSON format. The
// websocket handshake uses it so rejections look like REST rejections.
func ErrorResponder() auth.ErrorResponder {
	return writeError
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		// Long-lived: no timeout, no compression.
		r.Method(http.MethodGet, "/ws", router.realtime)

		r.Group(func(r chi.Router) {
			if router.requestTimeout > 0 {
				r.Use(chimiddleware.Timeout(router.requestTimeout))
			}
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Get("/health", router.handler.Health)

			r.Route("/auth", func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitAuth())
				r.Post("/register", router.handler.Register)
				r.Post("/login", router.handler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.guard.Middleware(writeError))

				r.Get("/projects", router.handler.ListProjects)
				r.Post("/projects", router.handler.CreateProject)

				r.Get("/tasks/{projectId}", router.handler.ListTasks)
				r.Post("/tasks", router.handler.CreateTask)
				r.Put("/tasks/{taskId}", router.handler.UpdateTask)
				r.Delete("/tasks/{taskId}", router.handler.DeleteTask)
			})
		})
	})

	return r
}
