// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type projectDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Owner     string    `bson:"owner"`
	CreatedAt time.Time `bson:"created_at"`
}

type taskDoc struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Status      string     `bson:"status"`
	AssigneeID  string     `bson:"assignee_id,omitempty"`
	DueDate     *time.Time `bson:"due_date,omitempty"`
	ProjectID   string     `bson:"project_id"`
	CreatedAt   time.Time  `bson:"created_at"`
}

// ids are UUIDv7 strings, so _id order is creation order.
var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

type tx struct {
	ctx context.Context
	s   *Store
}

func (t *tx) GetUser(id string) (*models.User, error) {
	return t.findUser(bson.M{"_id": id})
}

func (t *tx) GetUserByUsername(username string) (*models.User, error) {
	return t.findUser(bson.M{"username": username})
}

func (t *tx) findUser(filter bson.M) (*models.User, error) {
	var d userDoc
	if err := t.s.users.FindOne(t.ctx, filter).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return &models.User{ID: d.ID, Username: d.Username, PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt}, nil
}

func (t *tx) CreateUser(u *models.User) error {
	_, err := t.s.users.InsertOne(t.ctx, userDoc{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt})
	return translate(err)
}

func (t *tx) GetProject(id string) (*models.Project, error) {
	var d projectDoc
	if err := t.s.projects.FindOne(t.ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toModel(), nil
}

func (t *tx) ListProjectsByOwner(ownerID string) ([]*models.Project, error) {
	cur, err := t.s.projects.Find(t.ctx, bson.M{"owner": ownerID}, byID)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	var docs []projectDoc
	if err := cur.All(t.ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	out := make([]*models.Project, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (t *tx) PutProject(p *models.Project) error {
	d := projectDoc{ID: p.ID, Name: p.Name, Owner: p.Owner, CreatedAt: p.CreatedAt}
	return t.replace(t.s.projects, p.ID, d)
}

func (t *tx) GetTask(id string) (*models.Task, error) {
	var d taskDoc
	if err := t.s.tasks.FindOne(t.ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return d.toModel(), nil
}

func (t *tx) ListTasksByProject(projectID string) ([]*models.Task, error) {
	cur, err := t.s.tasks.Find(t.ctx, bson.M{"project_id": projectID}, byID)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(t.ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]*models.Task, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (t *tx) PutTask(task *models.Task) error {
	d := taskDoc{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		AssigneeID:  task.AssigneeID(),
		DueDate:     task.DueDate,
		ProjectID:   task.Project,
		CreatedAt:   task.CreatedAt,
	}
	return t.replace(t.s.tasks, task.ID, d)
}

func (t *tx) DeleteTask(id string) error {
	res, err := t.s.tasks.DeleteOne(t.ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) replace(coll *mongo.Collection, id string, doc interface{}) error {
	_, err := coll.ReplaceOne(t.ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", coll.Name(), id, translate(err))
	}
	return nil
}

func (d *projectDoc) toModel() *models.Project {
	return &models.Project{ID: d.ID, Name: d.Name, Owner: d.Owner, CreatedAt: d.CreatedAt}
}

func (d *taskDoc) toModel() *models.Task {
	task := &models.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      models.Status(d.Status),
		DueDate:     d.DueDate,
		Project:     d.ProjectID,
		CreatedAt:   d.CreatedAt,
	}
	if task.DueDate != nil {
		utc := task.DueDate.UTC()
		task.DueDate = &utc
	}
	if d.AssigneeID != "" {
		task.Assignee = &models.UserRef{ID: d.AssigneeID}
	}
	return task
}
