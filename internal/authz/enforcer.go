// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package authz

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/tasksync/internal/metrics"
	"github.com/tomtom215/tasksync/internal/models"
)

//go:embed model.conf
var embeddedModel string

// ErrNotOwner is returned when the caller does not own the project.
var ErrNotOwner = errors.New("caller does not own project")

// Action is the kind of access requested.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// resource is the ABAC object; the matcher reads r.obj.Owner.
type resource struct {
	ID    string
	Owner string
}

// Ownership decides whether a caller may act on a project.
type Ownership struct {
	enforcer *casbin.SyncedEnforcer
}

// NewOwnership builds the enforcer from the embedded model.
func NewOwnership() (*Ownership, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	return &Ownership{enforcer: e}, nil
}

// RequireOwnership returns ErrNotOwner unless callerID owns project.
func (o *Ownership) RequireOwnership(project *models.Project, callerID string, act Action) error {
	if project == nil {
		return ErrNotOwner
	}
	ok, err := o.enforcer.Enforce(callerID, resource{ID: project.ID, Owner: project.Owner}, string(act))
	if err != nil {
		metrics.AuthzDecisions.WithLabelValues(string(act), "error").Inc()
		return fmt.Errorf("enforce ownership: %w", err)
	}
	if !ok {
		metrics.AuthzDecisions.WithLabelValues(string(act), "deny").Inc()
		return ErrNotOwner
	}
	metrics.AuthzDecisions.WithLabelValues(string(act), "allow").Inc()
	return nil
}
