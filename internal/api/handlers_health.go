// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/tasksync/internal/logging"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Store         string  `json:"store"`
	EventBreaker  string  `json:"event_breaker,omitempty"`
	RealtimeConns *int    `json:"realtime_connections,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports 200 when the store answers a ping and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := &HealthResponse{
		Status:        "healthy",
		Store:         "ok",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.breaker != nil {
		resp.EventBreaker = h.breaker.BreakerState()
	}
	if h.realtime != nil {
		n := h.realtime.GetClientCount()
		resp.RealtimeConns = &n
	}

	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: store ping failed")
		resp.Status = "unhealthy"
		resp.Store = "unavailable"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
