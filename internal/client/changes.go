// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

// TaskChanges is a partial task update. It mirrors models.TaskPatch: only
// set fields are sent, and id, project and createdAt cannot be expressed.
// A Null assignee or due date clears that field.
//
//	changes := client.TaskChanges{
//		Status:  models.Some(models.StatusDone),
//		DueDate: models.Null[time.Time](),
//	}
type TaskChanges struct {
	Title       models.Optional[string]
	Description models.Optional[string]
	Status      models.Optional[models.Status]
	AssigneeID  models.Optional[string]
	DueDate     models.Optional[time.Time]
}

// Empty reports whether no field is set.
func (c TaskChanges) Empty() bool {
	return !c.Title.Set && !c.Description.Set && !c.Status.Set && !c.AssigneeID.Set && !c.DueDate.Set
}

// MarshalJSON encodes the set fields as the PUT /api/tasks/{taskId} body.
func (c TaskChanges) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{}, 5)
	if c.Title.Set {
		body["title"] = c.Title.Value
	}
	if c.Description.Set {
		body["description"] = c.Description.Value
	}
	if c.Status.Set {
		body["status"] = c.Status.Value
	}
	if c.AssigneeID.Set {
		body["assignee"] = nullable(c.AssigneeID, func(id string) interface{} { return id })
	}
	if c.DueDate.Set {
		body["dueDate"] = nullable(c.DueDate, func(d time.Time) interface{} { return d.UTC().Format(time.RFC3339) })
	}
	return json.Marshal(body)
}

func nullable[T any](o models.Optional[T], value func(T) interface{}) interface{} {
	if o.Null {
		return nil
	}
	return value(o.Value)
}
