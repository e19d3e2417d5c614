// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

// TaskStore is the ordered task collection of one project view. It is safe
// for concurrent use; reads return copies.
type TaskStore struct {
	projectID string

	mu    sync.RWMutex
	order []string
	tasks map[string]*models.Task
}

// NewTaskStore creates an empty store for projectID.
func NewTaskStore(projectID string) *TaskStore {
	return &TaskStore{projectID: projectID, tasks: make(map[string]*models.Task)}
}

// ProjectID returns the project this store mirrors.
func (s *TaskStore) ProjectID() string {
	return s.projectID
}

// Replace swaps the collection for tasks, keeping their order. Tasks of
// other projects are skipped.
func (s *TaskStore) Replace(tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(tasks))
	s.tasks = make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		s.upsertLocked(&tasks[i])
	}
}

// ApplyCreated records a task the local client created.
func (s *TaskStore) ApplyCreated(t *models.Task) bool {
	return s.upsert(t)
}

// ApplyUpdated records a task the local client updated.
func (s *TaskStore) ApplyUpdated(t *models.Task) bool {
	return s.upsert(t)
}

// ApplyDeleted removes a task the local client deleted.
func (s *TaskStore) ApplyDeleted(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(taskID)
}

// ApplyEvent merges a pushed realtime message. Messages that are not task
// events are ignored, as are events for other projects. It reports whether
// the store changed.
func (s *TaskStore) ApplyEvent(msg models.Message) (bool, error) {
	switch models.EventType(msg.Type) {
	case models.EventTaskCreate, models.EventTaskUpdate:
		var t models.Task
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return false, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return s.upsert(&t), nil
	case models.EventTaskDelete:
		var id string
		if err := json.Unmarshal(msg.Data, &id); err != nil {
			return false, fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		// Ids are unique, so an id from another project is never present.
		return s.ApplyDeleted(id), nil
	default:
		return false, nil
	}
}

// Tasks returns a copy of the collection in order.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id].Clone())
	}
	return out
}

// Get returns a copy of one task.
func (s *TaskStore) Get(taskID string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return models.Task{}, false
	}
	return *t.Clone(), true
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *TaskStore) upsert(t *models.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(t)
}

func (s *TaskStore) upsertLocked(t *models.Task) bool {
	if t == nil || t.ID == "" || t.Project != s.projectID {
		return false
	}
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	return true
}

func (s *TaskStore) removeLocked(taskID string) bool {
	if _, ok := s.tasks[taskID]; !ok {
		return false
	}
	delete(s.tasks, taskID)
	for i, id := range s.order {
		if id == taskID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
