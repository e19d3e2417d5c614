// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package services

import "context"

// ContextService is anything with a suture-compatible Serve method, such as
// *events.Publisher, *events.Bridge and *websocket.Hub.
type ContextService interface {
	Serve(ctx context.Context) error
}

// NamedService gives a ContextService a name for supervisor logs.
type NamedService struct {
	svc  ContextService
	name string
}

// Named wraps svc under name.
func Named(name string, svc ContextService) *NamedService {
	return &NamedService{svc: svc, name: name}
}

// Serve delegates to the wrapped service.
func (n *NamedService) Serve(ctx context.Context) error {
	return n.svc.Serve(ctx)
}

func (n *NamedService) String() string {
	return n.name
}
