// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package middleware provides the application's own HTTP middleware.

Everything here has the chi signature func(http.Handler) http.Handler so it
composes with the chi, cors and httprate middleware used by the router:

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation ids
  - AccessLog: one structured zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern so path parameters do not explode cardinality

Both wrap the ResponseWriter with chi's WrapResponseWriter, which keeps
http.Hijacker available for the websocket upgrade.
*/
package middleware
