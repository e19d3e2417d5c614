// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the closed set of task states.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Field validation errors. Services wrap these as invalid-argument errors.
var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidStatus = errors.New("status must be one of todo, in-progress, done")
	ErrInvalidDate   = errors.New("dueDate must be RFC3339 or YYYY-MM-DD")
	ErrNameRequired  = errors.New("name is required")
)

// ParseStatus validates s. The empty string yields StatusTodo.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusTodo, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Task is the resolved task projection returned by the API and carried by
// create/update events. Assignee is nil when unassigned.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Assignee    *UserRef   `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
	Project     string     `json:"project"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AssigneeID returns the assignee's id or "".
func (t *Task) AssigneeID() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.ID
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	if t.Assignee != nil {
		a := *t.Assignee
		c.Assignee = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// TaskFields is the input to task creation after decoding.
type TaskFields struct {
	Title       string
	Description string
	Status      Status // empty means todo
	AssigneeID  string // empty means unassigned
	DueDate     *time.Time
}

// Normalize trims the title, defaults the status and validates both.
func (f *TaskFields) Normalize() error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return ErrTitleRequired
	}
	st, err := ParseStatus(string(f.Status))
	if err != nil {
		return err
	}
	f.Status = st
	return nil
}

// ParseDueDate accepts RFC3339 timestamps or calendar dates (YYYY-MM-DD,
// interpreted as midnight UTC). The empty string means no date.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: got %q", ErrInvalidDate, s)
}
