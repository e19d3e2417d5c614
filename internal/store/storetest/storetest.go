// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package storetest holds the behavioral suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"users", testUsers},
		{"duplicate username", testDuplicateUsername},
		{"projects by owner", testProjectsByOwner},
		{"tasks by project", testTasksByProject},
		{"delete task", testDeleteTask},
		{"update rollback", testUpdateRollback},
		{"ping and close", testPingClose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatal(err)
	}
	return id.String()
}

func update(t *testing.T, s store.Store, fn func(store.Tx) error) {
	t.Helper()
	if err := s.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func testUsers(t *testing.T, s store.Store) {
	u := &models.User{ID: newID(t), Username: "alice", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	update(t, s, func(tx store.Tx) error { return tx.CreateUser(u) })

	err := s.View(context.Background(), func(tx store.Tx) error {
		got, err := tx.GetUser(u.ID)
		if err != nil {
			return err
		}
		if got.Username != "alice" || got.PasswordHash != "hash" {
			return fmt.Errorf("GetUser = %+v", got)
		}
		byName, err := tx.GetUserByUsername("alice")
		if err != nil {
			return err
		}
		if byName.ID != u.ID {
			return fmt.Errorf("GetUserByUsername id = %s, want %s", byName.ID, u.ID)
		}
		if _, err := tx.GetUserByUsername("bob"); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("missing user error = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func testDuplicateUsername(t *testing.T, s store.Store) {
	update(t, s, func(tx store.Tx) error {
		return tx.CreateUser(&models.User{ID: newID(t), Username: "alice"})
	})
	err := s.Update(context.Background(), func(tx store.Tx) error {
		return tx.CreateUser(&models.User{ID: newID(t), Username: "alice"})
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate CreateUser error = %v, want ErrConflict", err)
	}
}

func testProjectsByOwner(t *testing.T, s store.Store) {
	owner, other := newID(t), newID(t)
	var ids []string
	update(t, s, func(tx store.Tx) error {
		for i := 0; i < 3; i++ {
			p := &models.Project{ID: newID(t), Name: fmt.Sprintf("p%d", i), Owner: owner, CreatedAt: time.Now().UTC()}
			ids = append(ids, p.ID)
			if err := tx.PutProject(p); err != nil {
				return err
			}
		}
		return tx.PutProject(&models.Project{ID: newID(t), Name: "x", Owner: other})
	})

	err := s.View(context.Background(), func(tx store.Tx) error {
		got, err := tx.ListProjectsByOwner(owner)
		if err != nil {
			return err
		}
		if len(got) != len(ids) {
			return fmt.Errorf("got %d projects, want %d", len(got), len(ids))
		}
		for i, p := range got {
			if p.ID != ids[i] || p.Owner != owner {
				return fmt.Errorf("project %d = %+v, want id %s", i, p, ids[i])
			}
		}
		if _, err := tx.GetProject(newID(t)); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("missing project error = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func testTasksByProject(t *testing.T, s store.Store) {
	p1, p2 := newID(t), newID(t)
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	first := &models.Task{
		ID: newID(t), Title: "Roadmap", Status: models.StatusTodo, Project: p1,
		Assignee: &models.UserRef{ID: "u1", Username: "ignored"}, DueDate: &due,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	second := &models.Task{ID: newID(t), Title: "Build", Status: models.StatusDone, Project: p1}
	update(t, s, func(tx store.Tx) error {
		if err := tx.PutTask(first); err != nil {
			return err
		}
		if err := tx.PutTask(second); err != nil {
			return err
		}
		return tx.PutTask(&models.Task{ID: newID(t), Title: "Other", Status: models.StatusTodo, Project: p2})
	})

	err := s.View(context.Background(), func(tx store.Tx) error {
		got, err := tx.ListTasksByProject(p1)
		if err != nil {
			return err
		}
		if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
			return fmt.Errorf("ListTasksByProject = %+v", got)
		}
		g := got[0]
		if g.Assignee == nil || g.Assignee.ID != "u1" || g.Assignee.Username != "" {
			return fmt.Errorf("assignee = %+v, want id only", g.Assignee)
		}
		if g.DueDate == nil || !g.DueDate.Equal(due) {
			return fmt.Errorf("dueDate = %v", g.DueDate)
		}
		if got[1].Assignee != nil || got[1].DueDate != nil {
			return fmt.Errorf("unassigned task = %+v", got[1])
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func testDeleteTask(t *testing.T, s store.Store) {
	task := &models.Task{ID: newID(t), Title: "gone", Status: models.StatusTodo, Project: newID(t)}
	update(t, s, func(tx store.Tx) error { return tx.PutTask(task) })
	update(t, s, func(tx store.Tx) error { return tx.DeleteTask(task.ID) })

	err := s.Update(context.Background(), func(tx store.Tx) error { return tx.DeleteTask(task.ID) })
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second DeleteTask error = %v, want ErrNotFound", err)
	}
	err = s.View(context.Background(), func(tx store.Tx) error {
		list, err := tx.ListTasksByProject(task.Project)
		if err != nil {
			return err
		}
		if len(list) != 0 {
			return fmt.Errorf("index still lists %d tasks", len(list))
		}
		_, err = tx.GetTask(task.ID)
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("GetTask after delete = %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func testUpdateRollback(t *testing.T, s store.Store) {
	boom := errors.New("boom")
	id := newID(t)
	err := s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.PutProject(&models.Project{ID: id, Name: "x", Owner: "o"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	err = s.View(context.Background(), func(tx store.Tx) error {
		_, err := tx.GetProject(id)
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("project persisted despite failed update: %v", err)
	}
}

func testPingClose(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.View(ctx, func(store.Tx) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("View with canceled context = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
}
