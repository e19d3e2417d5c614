// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package badgerstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

// Key prefixes for BadgerDB storage
const (
	userKeyPrefix         = "user:"
	userNameKeyPrefix     = "user_name:"
	projectKeyPrefix      = "project:"
	projectOwnerKeyPrefix = "project_owner:"
	taskKeyPrefix         = "task:"
	taskProjectKeyPrefix  = "task_project:"
)

type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type projectRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type taskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ProjectID   string     `json:"project_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type tx struct {
	txn *badger.Txn
}

func (t *tx) get(key string, v interface{}) error {
	item, err := t.txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func (t *tx) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := t.txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// indexIDs returns the values stored under an index prefix, in key order.
func (t *tx) indexIDs(prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (t *tx) GetUser(id string) (*models.User, error) {
	var rec userRecord
	if err := t.get(userKeyPrefix+id, &rec); err != nil {
		return nil, err
	}
	return &models.User{ID: rec.ID, Username: rec.Username, PasswordHash: rec.PasswordHash, CreatedAt: rec.CreatedAt}, nil
}

func (t *tx) GetUserByUsername(username string) (*models.User, error) {
	item, err := t.txn.Get([]byte(userNameKeyPrefix + username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get username index: %w", err)
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return t.GetUser(string(id))
}

func (t *tx) CreateUser(u *models.User) error {
	nameKey := []byte(userNameKeyPrefix + u.Username)
	if _, err := t.txn.Get(nameKey); err == nil {
		return store.ErrConflict
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	rec := userRecord{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
	if err := t.set(userKeyPrefix+u.ID, rec); err != nil {
		return err
	}
	// The read of nameKey above is tracked by badger, so a concurrent
	// registration of the same name fails its commit with ErrConflict.
	return t.txn.Set(nameKey, []byte(u.ID))
}

func (t *tx) GetProject(id string) (*models.Project, error) {
	var rec projectRecord
	if err := t.get(projectKeyPrefix+id, &rec); err != nil {
		return nil, err
	}
	return &models.Project{ID: rec.ID, Name: rec.Name, Owner: rec.Owner, CreatedAt: rec.CreatedAt}, nil
}

func (t *tx) ListProjectsByOwner(ownerID string) ([]*models.Project, error) {
	ids, err := t.indexIDs(projectOwnerKeyPrefix + ownerID + ":")
	if err != nil {
		return nil, fmt.Errorf("list owner projects: %w", err)
	}
	projects := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		p, err := t.GetProject(id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (t *tx) PutProject(p *models.Project) error {
	rec := projectRecord{ID: p.ID, Name: p.Name, Owner: p.Owner, CreatedAt: p.CreatedAt}
	if err := t.set(projectKeyPrefix+p.ID, rec); err != nil {
		return err
	}
	return t.txn.Set([]byte(projectOwnerKeyPrefix+p.Owner+":"+p.ID), []byte(p.ID))
}

func (t *tx) GetTask(id string) (*models.Task, error) {
	var rec taskRecord
	if err := t.get(taskKeyPrefix+id, &rec); err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (t *tx) ListTasksByProject(projectID string) ([]*models.Task, error) {
	ids, err := t.indexIDs(taskProjectKeyPrefix + projectID + ":")
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	tasks := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := t.GetTask(id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (t *tx) PutTask(task *models.Task) error {
	rec := taskRecord{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		AssigneeID:  task.AssigneeID(),
		DueDate:     task.DueDate,
		ProjectID:   task.Project,
		CreatedAt:   task.CreatedAt,
	}
	if err := t.set(taskKeyPrefix+task.ID, rec); err != nil {
		return err
	}
	return t.txn.Set([]byte(taskProjectKeyPrefix+task.Project+":"+task.ID), []byte(task.ID))
}

func (t *tx) DeleteTask(id string) error {
	var rec taskRecord
	if err := t.get(taskKeyPrefix+id, &rec); err != nil {
		return err
	}
	if err := t.txn.Delete([]byte(taskKeyPrefix + id)); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if err := t.txn.Delete([]byte(taskProjectKeyPrefix + rec.ProjectID + ":" + id)); err != nil {
		return fmt.Errorf("delete task index: %w", err)
	}
	return nil
}

func (r *taskRecord) toModel() *models.Task {
	task := &models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.Status(r.Status),
		DueDate:     r.DueDate,
		Project:     r.ProjectID,
		CreatedAt:   r.CreatedAt,
	}
	if r.AssigneeID != "" {
		task.Assignee = &models.UserRef{ID: r.AssigneeID}
	}
	return task
}
