// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
)

// ViewOptions configures a ProjectView.
type ViewOptions struct {
	// OnEvent is called after a pushed task event has been merged. It runs
	// on the session's read goroutine and must not call Refresh.
	OnEvent func(msg models.Message, changed bool)
}

// ProjectView keeps a TaskStore in step with one project on the server.
type ProjectView struct {
	api       *APIClient
	sess      *Session
	projectID string
	store     *TaskStore
	opts      ViewOptions
	remove    func()

	// While loading, pushed events are held in pending and replayed
	// after the listed state is installed.
	mu      sync.Mutex
	loading bool
	pending []models.Message
}

// OpenProjectView subscribes sess to projectID, lists its tasks through api
// and starts merging events.
func OpenProjectView(ctx context.Context, api *APIClient, sess *Session, projectID string, opts ViewOptions) (*ProjectView, error) {
	v := &ProjectView{
		api:       api,
		sess:      sess,
		projectID: projectID,
		store:     NewTaskStore(projectID),
		opts:      opts,
		loading:   true,
	}
	v.remove = sess.Listen(v.onMessage)

	if err := sess.Subscribe(ctx, projectID); err != nil {
		v.remove()
		return nil, fmt.Errorf("subscribe to project %s: %w", projectID, err)
	}
	if err := v.load(ctx); err != nil {
		v.remove()
		_ = sess.Unsubscribe(projectID)
		return nil, err
	}
	return v, nil
}

// ProjectID returns the viewed project.
func (v *ProjectView) ProjectID() string {
	return v.projectID
}

// Store returns the underlying store.
func (v *ProjectView) Store() *TaskStore {
	return v.store
}

// Tasks returns a snapshot of the project's tasks.
func (v *ProjectView) Tasks() []models.Task {
	return v.store.Tasks()
}

// Refresh re-lists the project, for example after a reconnect.
func (v *ProjectView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()
	return v.load(ctx)
}

// CreateTask creates a task in the viewed project and records it locally.
func (v *ProjectView) CreateTask(ctx context.Context, task NewTask) (*models.Task, error) {
	task.ProjectID = v.projectID
	t, err := v.api.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	v.store.ApplyCreated(t)
	return t, nil
}

// UpdateTask updates a task and records the result locally.
func (v *ProjectView) UpdateTask(ctx context.Context, taskID string, changes TaskChanges) (*models.Task, error) {
	t, err := v.api.UpdateTask(ctx, taskID, changes)
	if err != nil {
		return nil, err
	}
	v.store.ApplyUpdated(t)
	return t, nil
}

// DeleteTask deletes a task and removes it locally.
func (v *ProjectView) DeleteTask(ctx context.Context, taskID string) error {
	if err := v.api.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	v.store.ApplyDeleted(taskID)
	return nil
}

// Close stops merging events and unsubscribes.
func (v *ProjectView) Close() error {
	v.remove()
	return v.sess.Unsubscribe(v.projectID)
}

func (v *ProjectView) load(ctx context.Context) error {
	tasks, err := v.api.ListTasks(ctx, v.projectID)

	v.mu.Lock()
	defer v.mu.Unlock()
	pending := v.pending
	v.pending = nil
	v.loading = false

	if err != nil {
		// Keep the previous state and apply what arrived meanwhile.
		for _, msg := range pending {
			v.apply(msg)
		}
		return fmt.Errorf("list tasks of project %s: %w", v.projectID, err)
	}
	v.store.Replace(tasks)
	for _, msg := range pending {
		v.apply(msg)
	}
	return nil
}

func (v *ProjectView) onMessage(msg models.Message) {
	switch models.EventType(msg.Type) {
	case models.EventTaskCreate, models.EventTaskUpdate, models.EventTaskDelete:
	default:
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading {
		v.pending = append(v.pending, msg)
		return
	}
	v.apply(msg)
}

// apply must be called with v.mu held.
func (v *ProjectView) apply(msg models.Message) {
	changed, err := v.store.ApplyEvent(msg)
	if err != nil {
		logging.Warn().Err(err).Str("project_id", v.projectID).Msg("Dropping undecodable task event")
		return
	}
	if v.opts.OnEvent != nil {
		v.opts.OnEvent(msg, changed)
	}
}
