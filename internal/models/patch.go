// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Optional is a patch field. Set means the key was present; Null means the
// key was present with a JSON null (or an empty string for references).
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a set Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// TaskPatch carries the subset of task fields a caller may change.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Status      Optional[Status]
	AssigneeID  Optional[string]
	DueDate     Optional[time.Time]
}

// Empty reports whether no field is set.
func (p *TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.AssigneeID.Set && !p.DueDate.Set
}

// UnmarshalJSON decodes a partial task body. Unknown keys, including
// id, project and createdAt, are ignored.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = TaskPatch{}

	if v, ok := raw["title"]; ok {
		s, null, err := decodeString("title", v)
		if err != nil {
			return err
		}
		if null {
			return fmt.Errorf("title: %w", ErrTitleRequired)
		}
		p.Title = Some(s)
	}
	if v, ok := raw["description"]; ok {
		s, null, err := decodeString("description", v)
		if err != nil {
			return err
		}
		// null description collapses to empty text
		if null {
			s = ""
		}
		p.Description = Some(s)
	}
	if v, ok := raw["status"]; ok {
		s, null, err := decodeString("status", v)
		if err != nil {
			return err
		}
		if null {
			return ErrInvalidStatus
		}
		p.Status = Some(Status(s))
	}
	if v, ok := raw["assignee"]; ok {
		id, err := DecodeAssignee(v)
		if err != nil {
			return err
		}
		if id == "" {
			p.AssigneeID = Null[string]()
		} else {
			p.AssigneeID = Some(id)
		}
	}
	if v, ok := raw["dueDate"]; ok {
		s, null, err := decodeString("dueDate", v)
		if err != nil {
			return err
		}
		due, err := ParseDueDate(s)
		if err != nil {
			return err
		}
		if null || due == nil {
			p.DueDate = Null[time.Time]()
		} else {
			p.DueDate = Some(*due)
		}
	}
	return nil
}

// Validate checks the values of set fields.
func (p *TaskPatch) Validate() error {
	if p.Title.Set {
		p.Title.Value = strings.TrimSpace(p.Title.Value)
		if p.Title.Value == "" {
			return ErrTitleRequired
		}
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return fmt.Errorf("%w: got %q", ErrInvalidStatus, p.Status.Value)
	}
	return nil
}

// Apply merges the scalar fields of the patch onto t. The assignee is
// resolved by the caller because it needs a user lookup.
func (p *TaskPatch) Apply(t *Task) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.DueDate.Set {
		if p.DueDate.Null {
			t.DueDate = nil
		} else {
			d := p.DueDate.Value
			t.DueDate = &d
		}
	}
}

func decodeString(field string, v json.RawMessage) (string, bool, error) {
	if isNull(v) {
		return "", true, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false, fmt.Errorf("%s must be a string", field)
	}
	return s, false, nil
}

// DecodeAssignee accepts null, "", an id string, or a resolved
// {"id": ...} object echoed back by a client.
func DecodeAssignee(v json.RawMessage) (string, error) {
	if isNull(v) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var ref UserRef
	if err := json.Unmarshal(v, &ref); err != nil {
		return "", fmt.Errorf("assignee must be a user id")
	}
	return ref.ID, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}
