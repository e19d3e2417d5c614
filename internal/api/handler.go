// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"time"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/store"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// BreakerReporter exposes the event publisher's circuit breaker state.
// events.Publisher satisfies it.
type BreakerReporter interface {
	BreakerState() string
}

// RealtimeStats reports connected realtime sessions. websocket.Hub
// satisfies it.
type RealtimeStats interface {
	GetClientCount() int
}

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	accounts *auth.Accounts
	projects *tracker.ProjectService
	tasks    *tracker.TaskService
	store    store.Store

	breaker  BreakerReporter
	realtime RealtimeStats

	startTime time.Time
}

// HandlerDeps are the collaborators of a Handler. Breaker and Realtime are
// optional and only enrich the health response.
type HandlerDeps struct {
	Accounts *auth.Accounts
	Projects *tracker.ProjectService
	Tasks    *tracker.TaskService
	Store    store.Store
	Breaker  BreakerReporter
	Realtime RealtimeStats
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		accounts:  deps.Accounts,
		projects:  deps.Projects,
		tasks:     deps.Tasks,
		store:     deps.Store,
		breaker:   deps.Breaker,
		realtime:  deps.Realtime,
		startTime: time.Now(),
	}
}
