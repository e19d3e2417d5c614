// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateTaskRequest is the body of POST /api/tasks. Assignee accepts the
// same shapes as an update: null, "", a user id or {"id": ...}.
type CreateTaskRequest struct {
	Title       string          `json:"title" validate:"required,max=500"`
	Description string          `json:"description" validate:"max=10000"`
	Status      string          `json:"status" validate:"taskstatus"`
	Assignee    json.RawMessage `json:"assignee"`
	DueDate     string          `json:"dueDate" validate:"duedate"`
	ProjectID   string          `json:"projectId" validate:"required"`
}

// Fields converts the request to service input.
func (req *CreateTaskRequest) Fields() (models.TaskFields, error) {
	fields := models.TaskFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.Status(req.Status),
	}
	if len(req.Assignee) > 0 {
		id, err := models.DecodeAssignee(req.Assignee)
		if err != nil {
			return fields, err
		}
		fields.AssigneeID = id
	}
	due, err := models.ParseDueDate(req.DueDate)
	if err != nil {
		return fields, err
	}
	fields.DueDate = due
	return fields, nil
}
