// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package store defines the document store contract used by the services.
//
// All reads and writes happen inside a transaction obtained from View or
// Update. Backends guarantee that an Update function either commits every
// write it made or none of them; the badger backend additionally provides
// snapshot isolation with optimistic conflict detection, retrying the
// function on conflict.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/tasksync/internal/models"
)

// Store sentinels.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
	ErrClosed   = errors.New("store: closed")
)

// Store is a transactional document store.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in a read-write transaction. fn may be invoked more
	// than once if the backend detects a conflicting concurrent commit, so
	// it must not have side effects outside the transaction.
	Update(ctx context.Context, fn func(Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// Tx is the set of document operations available inside a transaction.
//
// Tasks returned by GetTask and ListTasksByProject carry only the assignee
// id (Assignee.Username is empty); resolution is the caller's job.
type Tx interface {
	GetUser(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	// CreateUser fails with ErrConflict when the username is taken.
	CreateUser(u *models.User) error

	GetProject(id string) (*models.Project, error)
	// ListProjectsByOwner returns projects in creation order.
	ListProjectsByOwner(ownerID string) ([]*models.Project, error)
	PutProject(p *models.Project) error

	GetTask(id string) (*models.Task, error)
	// ListTasksByProject returns tasks in creation order.
	ListTasksByProject(projectID string) ([]*models.Task, error)
	PutTask(t *models.Task) error
	// DeleteTask fails with ErrNotFound when the task does not exist.
	DeleteTask(id string) error
}
