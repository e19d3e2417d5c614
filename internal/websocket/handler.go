// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
)

// Handler authenticates and upgrades realtime connections.
type Handler struct {
	hub      *Hub
	guard    *auth.Guard
	cfg      config.RealtimeConfig
	onError  auth.ErrorResponder
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. onError writes handshake rejections.
func NewHandler(hub *Hub, guard *auth.Guard, cfg config.RealtimeConfig, onError auth.ErrorResponder) *Handler {
	h := &Handler{hub: hub, guard: guard, cfg: cfg, onError: onError}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// ServeHTTP verifies the credential and upgrades the connection. Requests
// with a missing or invalid credential get 401 and are never upgraded.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveHandshake(auth.CredentialFromHandshake(r))
	if err != nil {
		metrics.WSErrors.WithLabelValues("handshake_auth").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket handshake rejected")
		h.onError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	client := NewClient(h.hub, conn, caller.UserID)
	if h.cfg.MaxMessageSize > 0 {
		client.maxMessageSize = h.cfg.MaxMessageSize
	}
	client.Start()
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients authenticate with a bearer token) and otherwise matches the
// allowed list.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

func sanitizeLogValue(s string) string {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
