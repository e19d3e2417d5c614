// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

// Client-facing messages.
const (
	MsgProjectMissing     = "Project not found"
	MsgTaskNotFound       = "Task not found"
	MsgNoPermissionAdd    = "You do not have permission to add a task to this project"
	MsgNoPermissionUpdate = "You do not have permission to update this task"
	MsgNoPermissionDelete = "You do not have permission to delete this task"
	MsgUnknownAssignee    = "assignee does not exist"
)

// TaskService manages tasks within projects.
type TaskService struct {
	base
	emitter Emitter
	locks   *keyedMutex
}

// NewTaskService creates a TaskService. A nil emitter discards events.
func NewTaskService(s store.Store, a Authorizer, e Emitter, opTimeout time.Duration) *TaskService {
	if e == nil {
		e = nopEmitter{}
	}
	return &TaskService{base: newBase(s, a, opTimeout), emitter: e, locks: newKeyedMutex()}
}

// ListTasks returns every task of the project with assignees resolved.
func (s *TaskService) ListTasks(ctx context.Context, callerID, projectID string) ([]*models.Task, error) {
	if callerID == "" {
		return nil, Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	var tasks []*models.Task
	err := s.view(ctx, "list_tasks", func(tx store.Tx) error {
		if _, err := loadReadable(tx, s.authz, callerID, projectID); err != nil {
			return err
		}
		var err error
		tasks, err = tx.ListTasksByProject(projectID)
		if err != nil {
			return err
		}
		names := make(map[string]*models.UserRef)
		for _, t := range tasks {
			if err := resolveAssignee(tx, t, names); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "list tasks", err)
	}
	return tasks, nil
}

// CreateTask persists a task in the caller's project and emits taskCreate.
func (s *TaskService) CreateTask(ctx context.Context, callerID, projectID string, fields models.TaskFields) (*models.Task, error) {
	if callerID == "" {
		return nil, Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	if err := fields.Normalize(); err != nil {
		return nil, Invalid(err)
	}
	id, err := s.newID()
	if err != nil {
		return nil, storeErr("generate task id", err)
	}

	var task *models.Task
	err = s.update(ctx, "create_task", func(tx store.Tx) error {
		project, err := tx.GetProject(projectID)
		if errors.Is(err, store.ErrNotFound) {
			return Errorf(ErrNotFound, MsgProjectMissing)
		}
		if err != nil {
			return err
		}
		if err := s.requireWrite(project, callerID, MsgNoPermissionAdd); err != nil {
			return err
		}

		task = &models.Task{
			ID:          id,
			Title:       fields.Title,
			Description: fields.Description,
			Status:      fields.Status,
			DueDate:     fields.DueDate,
			Project:     project.ID,
			CreatedAt:   s.now(),
		}
		if task.Assignee, err = lookupAssignee(tx, fields.AssigneeID); err != nil {
			return err
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return nil, s.fail(ctx, "create task", err)
	}

	s.emit(ctx, models.TaskEvent{Type: models.EventTaskCreate, ProjectID: task.Project, TaskID: task.ID, Task: task.Clone()})
	logging.Ctx(ctx).Info().Str("project_id", task.Project).Str("task_id", task.ID).Msg("Task created")
	return task, nil
}

// UpdateTask applies patch to the task and emits taskUpdate. Fields absent
// from the patch are left unchanged.
func (s *TaskService) UpdateTask(ctx context.Context, callerID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	if callerID == "" {
		return nil, Errorf(ErrUnauthenticated, "No token, authorization denied")
	}
	if err := patch.Validate(); err != nil {
		return nil, Invalid(err)
	}

	unlock := s.locks.Lock(taskID)
	defer unlock()

	var task *models.Task
	err := s.update(ctx, "update_task", func(tx store.Tx) error {
		var err error
		task, err = s.loadWritable(tx, callerID, taskID, MsgNoPermissionUpdate)
		if err != nil {
			return err
		}

		patch.Apply(task)
		if patch.AssigneeID.Set {
			if patch.AssigneeID.Null {
				task.Assignee = nil
			} else if task.Assignee, err = lookupAssignee(tx, patch.AssigneeID.Value); err != nil {
				return err
			}
		} else if err := resolveAssignee(tx, task, nil); err != nil {
			return err
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return nil, s.fail(ctx, "update task", err)
	}

	s.emit(ctx, models.TaskEvent{Type: models.EventTaskUpdate, ProjectID: task.Project, TaskID: task.ID, Task: task.Clone()})
	logging.Ctx(ctx).Info().Str("project_id", task.Project).Str("task_id", task.ID).Msg("Task updated")
	return task, nil
}

// DeleteTask removes the task and emits taskDelete carrying only its id.
func (s *TaskService) DeleteTask(ctx context.Context, callerID, taskID string) error {
	if callerID == "" {
		return Errorf(ErrUnauthenticated, "No token, authorization denied")
	}

	unlock := s.locks.Lock(taskID)
	defer unlock()

	var projectID string
	err := s.update(ctx, "delete_task", func(tx store.Tx) error {
		task, err := s.loadWritable(tx, callerID, taskID, MsgNoPermissionDelete)
		if err != nil {
			return err
		}
		projectID = task.Project
		return tx.DeleteTask(taskID)
	})
	if err != nil {
		return s.fail(ctx, "delete task", err)
	}

	s.emit(ctx, models.TaskEvent{Type: models.EventTaskDelete, ProjectID: projectID, TaskID: taskID})
	logging.Ctx(ctx).Info().Str("project_id", projectID).Str("task_id", taskID).Msg("Task deleted")
	return nil
}

// loadWritable loads a task and requires write access to its project. A
// task whose project has vanished is treated as not owned. denied is the
// message of the Forbidden error.
func (s *TaskService) loadWritable(tx store.Tx, callerID, taskID, denied string) (*models.Task, error) {
	task, err := tx.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Errorf(ErrNotFound, MsgTaskNotFound)
	}
	if err != nil {
		return nil, err
	}
	project, err := tx.GetProject(task.Project)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Errorf(ErrForbidden, "%s", denied)
	}
	if err != nil {
		return nil, err
	}
	if err := s.requireWrite(project, callerID, denied); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) requireWrite(project *models.Project, callerID, denied string) error {
	err := s.authz.RequireOwnership(project, callerID, authz.ActionWrite)
	if errors.Is(err, authz.ErrNotOwner) {
		return Errorf(ErrForbidden, "%s", denied)
	}
	return err
}

func (s *TaskService) emit(ctx context.Context, ev models.TaskEvent) {
	metrics.TaskMutations.WithLabelValues(string(ev.Type)).Inc()
	s.emitter.Emit(ctx, ev)
}

// fail logs err at a level matching its kind and classifies it.
func (s *TaskService) fail(ctx context.Context, op string, err error) error {
	cerr := storeErr(op, err)
	l := logging.Ctx(ctx)
	switch {
	case errors.Is(cerr, ErrForbidden):
		l.Warn().Str("op", op).Msg("Task access denied")
	case errors.Is(cerr, ErrStoreUnavailable):
		l.Error().Err(err).Str("op", op).Msg("Task operation failed")
	default:
		l.Debug().Err(err).Str("op", op).Msg("Task operation rejected")
	}
	return cerr
}

// lookupAssignee resolves an assignee id. An empty id means unassigned;
// an id with no user behind it is an invalid argument.
func lookupAssignee(tx store.Tx, id string) (*models.UserRef, error) {
	if id == "" {
		return nil, nil
	}
	u, err := tx.GetUser(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Invalid(fmt.Errorf("%s: %q", MsgUnknownAssignee, id))
	}
	if err != nil {
		return nil, err
	}
	return u.Ref(), nil
}

// resolveAssignee fills in the assignee's username. Users that no longer
// exist resolve to null, matching a dangling reference.
func resolveAssignee(tx store.Tx, t *models.Task, cache map[string]*models.UserRef) error {
	if t.Assignee == nil {
		return nil
	}
	id := t.Assignee.ID
	if ref, ok := cache[id]; ok {
		t.Assignee = ref
		return nil
	}
	u, err := tx.GetUser(id)
	var ref *models.UserRef
	switch {
	case err == nil:
		ref = u.Ref()
	case errors.Is(err, store.ErrNotFound):
	default:
		return err
	}
	if cache != nil {
		cache[id] = ref
	}
	t.Assignee = ref
	return nil
}
