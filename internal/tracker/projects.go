// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

// MsgProjectNotFound hides whether a project exists from non-owners.
const MsgProjectNotFound = "Project not found or you do not have access"

// ProjectService manages projects scoped to their owner.
type ProjectService struct {
	base
}

// NewProjectService creates a ProjectService.
func NewProjectService(s store.Store, a Authorizer, opTimeout time.Duration) *ProjectService {
	return &ProjectService{base: newBase(s, a, opTimeout)}
}

// ListProjects returns the caller's projects in creation order.
func (s *ProjectService) ListProjects(ctx context.Context, callerID string) ([]*models.Project, error) {
	if callerID == "" {
		return nil, Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	var projects []*models.Project
	err := s.view(ctx, "list_projects", func(tx store.Tx) error {
		var err error
		projects, err = tx.ListProjectsByOwner(callerID)
		return err
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("List projects failed")
		return nil, storeErr("list projects", err)
	}
	return projects, nil
}

// CreateProject persists a new project owned by the caller.
func (s *ProjectService) CreateProject(ctx context.Context, callerID, name string) (*models.Project, error) {
	if callerID == "" {
		return nil, Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid(models.ErrNameRequired)
	}
	id, err := s.newID()
	if err != nil {
		return nil, storeErr("generate project id", err)
	}
	project := &models.Project{ID: id, Name: name, Owner: callerID, CreatedAt: s.now()}

	if err := s.update(ctx, "create_project", func(tx store.Tx) error {
		return tx.PutProject(project)
	}); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Create project failed")
		return nil, storeErr("create project", err)
	}

	logging.Ctx(ctx).Info().Str("project_id", project.ID).Msg("Project created")
	return project, nil
}

// Authorize checks that the caller may read the project. Absent projects
// and projects owned by someone else both yield ErrNotFound.
func (s *ProjectService) Authorize(ctx context.Context, callerID, projectID string) error {
	if callerID == "" {
		return Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	err := s.view(ctx, "authorize_project", func(tx store.Tx) error {
		_, err := loadReadable(tx, s.authz, callerID, projectID)
		return err
	})
	if err != nil {
		return storeErr("authorize project", err)
	}
	return nil
}

// loadReadable fetches a project and requires read access, collapsing
// absence and denial into one not-found error.
func loadReadable(tx store.Tx, a Authorizer, callerID, projectID string) (*models.Project, error) {
	project, err := tx.GetProject(projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Errorf(ErrNotFound, MsgProjectNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := a.RequireOwnership(project, callerID, authz.ActionRead); err != nil {
		if errors.Is(err, authz.ErrNotOwner) {
			return nil, Errorf(ErrNotFound, MsgProjectNotFound)
		}
		return nil, err
	}
	return project, nil
}
