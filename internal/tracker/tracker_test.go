// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
	"github.com/tomtom215/tasksync/internal/store/badgerstore"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

// recorder collects emitted events in order.
type recorder struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *recorder) Emit(_ context.Context, ev models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []models.TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TaskEvent(nil), r.events...)
}

type fixture struct {
	store    store.Store
	projects *ProjectService
	tasks    *TaskService
	events   *recorder
	alice    *models.User
	bob      *models.User
	project  *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return newFixtureWithStore(t, s)
}

func newFixtureWithStore(t *testing.T, s store.Store) *fixture {
	t.Helper()
	o, err := authz.NewOwnership()
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		store:    s,
		projects: NewProjectService(s, o, time.Second),
		events:   &recorder{},
		alice:    &models.User{ID: "u-alice", Username: "alice"},
		bob:      &models.User{ID: "u-bob", Username: "bob"},
	}
	f.tasks = NewTaskService(s, o, f.events, time.Second)

	err = s.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.CreateUser(f.alice); err != nil {
			return err
		}
		return tx.CreateUser(f.bob)
	})
	if err != nil {
		t.Fatal(err)
	}
	f.project, err = f.projects.CreateProject(context.Background(), f.alice.ID, "Launch")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	return f
}

func (f *fixture) createTask(t *testing.T, title string) *models.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), f.alice.ID, f.project.ID, models.TaskFields{Title: title})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want %v", err, kind)
	}
}

func TestProjectService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.projects.CreateProject(ctx, f.alice.ID, "  Second  ")
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "Second" || second.Owner != f.alice.ID {
		t.Errorf("project = %+v", second)
	}
	if _, err := f.projects.CreateProject(ctx, f.bob.ID, "Bob's"); err != nil {
		t.Fatal(err)
	}

	list, err := f.projects.ListProjects(ctx, f.alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != f.project.ID || list[1].ID != second.ID {
		t.Errorf("ListProjects = %+v", list)
	}

	_, err = f.projects.CreateProject(ctx, f.alice.ID, "   ")
	wantKind(t, err, ErrInvalidArgument)

	_, err = f.projects.ListProjects(ctx, "")
	wantKind(t, err, ErrUnauthenticated)
}

func TestProjectService_Authorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.projects.Authorize(ctx, f.alice.ID, f.project.ID); err != nil {
		t.Errorf("owner Authorize() = %v", err)
	}
	wantKind(t, f.projects.Authorize(ctx, f.bob.ID, f.project.ID), ErrNotFound)
	wantKind(t, f.projects.Authorize(ctx, f.alice.ID, "missing"), ErrNotFound)
}

func TestListTasks_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("ListTasks = %+v", list)
	}

	_, err = f.tasks.ListTasks(ctx, f.bob.ID, f.project.ID)
	wantKind(t, err, ErrNotFound)
	_, err = f.tasks.ListTasks(ctx, f.alice.ID, "missing")
	wantKind(t, err, ErrNotFound)
	if Message(err) != MsgProjectNotFound {
		t.Errorf("message = %q", Message(err))
	}
}

func TestCreateTask_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	created, err := f.tasks.CreateTask(ctx, f.alice.ID, f.project.ID, models.TaskFields{
		Title:       "Roadmap",
		Description: "write it",
		Status:      models.StatusInProgress,
		AssigneeID:  f.bob.ID,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Assignee == nil || created.Assignee.Username != "bob" {
		t.Errorf("assignee = %+v, want resolved bob", created.Assignee)
	}

	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := list[0]
	if got.Title != "Roadmap" || got.Description != "write it" || got.Status != models.StatusInProgress ||
		got.Project != f.project.ID || got.DueDate == nil || !got.DueDate.Equal(due) ||
		got.Assignee == nil || *got.Assignee != *created.Assignee {
		t.Errorf("listed = %+v, created = %+v", got, created)
	}

	events := f.events.all()
	if len(events) != 1 || events[0].Type != models.EventTaskCreate || events[0].Task.Title != "Roadmap" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Task.Assignee == nil || events[0].Task.Assignee.Username != "bob" {
		t.Error("taskCreate event carries unresolved assignee")
	}
}

func TestCreateTask_Defaults(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, "Roadmap")
	if task.Status != models.StatusTodo || task.Assignee != nil || task.DueDate != nil {
		t.Errorf("task = %+v", task)
	}
}

func TestCreateTask_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		caller    string
		projectID string
		fields    models.TaskFields
		want      error
	}{
		{"not owner", f.bob.ID, f.project.ID, models.TaskFields{Title: "x"}, ErrForbidden},
		{"missing project", f.alice.ID, "missing", models.TaskFields{Title: "x"}, ErrNotFound},
		{"blank title", f.alice.ID, f.project.ID, models.TaskFields{Title: " "}, ErrInvalidArgument},
		{"bad status", f.alice.ID, f.project.ID, models.TaskFields{Title: "x", Status: "archived"}, ErrInvalidArgument},
		{"unknown assignee", f.alice.ID, f.project.ID, models.TaskFields{Title: "x", AssigneeID: "ghost"}, ErrInvalidArgument},
		{"unauthenticated", "", f.project.ID, models.TaskFields{Title: "x"}, ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.CreateTask(ctx, tt.caller, tt.projectID, tt.fields)
			wantKind(t, err, tt.want)
		})
	}

	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("rejected creates persisted %d tasks", len(list))
	}
	if n := len(f.events.all()); n != 0 {
		t.Errorf("rejected creates emitted %d events", n)
	}
}

// Forbidden errors carry the permission message of the operation verbatim.
func TestForbiddenMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{
			name: "create",
			call: func() error {
				_, err := f.tasks.CreateTask(ctx, f.bob.ID, f.project.ID, models.TaskFields{Title: "x"})
				return err
			},
			want: MsgNoPermissionAdd,
		},
		{
			name: "update",
			call: func() error {
				_, err := f.tasks.UpdateTask(ctx, f.bob.ID, task.ID, models.TaskPatch{Title: models.Some("x")})
				return err
			},
			want: MsgNoPermissionUpdate,
		},
		{
			name: "delete",
			call: func() error {
				return f.tasks.DeleteTask(ctx, f.bob.ID, task.ID)
			},
			want: MsgNoPermissionDelete,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			wantKind(t, err, ErrForbidden)
			if Message(err) != tt.want {
				t.Errorf("message = %q, want %q", Message(err), tt.want)
			}
		})
	}
}

func TestErrorf_MessageIsNotReformatted(t *testing.T) {
	err := Errorf(ErrForbidden, "%s", "100% denied")
	if Message(err) != "100% denied" {
		t.Errorf("message = %q", Message(err))
	}
}

func TestUpdateTask_PartialMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	orig, err := f.tasks.CreateTask(ctx, f.alice.ID, f.project.ID, models.TaskFields{
		Title: "Roadmap", Description: "desc", AssigneeID: f.bob.ID, DueDate: &due,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.tasks.UpdateTask(ctx, f.alice.ID, orig.ID, models.TaskPatch{Status: models.Some(models.StatusDone)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.StatusDone {
		t.Errorf("Status = %q", updated.Status)
	}
	if updated.Title != orig.Title || updated.Description != orig.Description ||
		updated.Assignee == nil || updated.Assignee.Username != "bob" ||
		!updated.DueDate.Equal(*orig.DueDate) || !updated.CreatedAt.Equal(orig.CreatedAt) ||
		updated.Project != orig.Project {
		t.Errorf("unpatched fields changed: orig %+v, updated %+v", orig, updated)
	}

	cleared, err := f.tasks.UpdateTask(ctx, f.alice.ID, orig.ID, models.TaskPatch{
		AssigneeID: models.Null[string](),
		DueDate:    models.Null[time.Time](),
	})
	if err != nil {
		t.Fatal(err)
	}
	if cleared.Assignee != nil || cleared.DueDate != nil || cleared.Status != models.StatusDone {
		t.Errorf("cleared = %+v", cleared)
	}

	events := f.events.all()
	if len(events) != 3 || events[1].Type != models.EventTaskUpdate || events[2].Task.Assignee != nil {
		t.Errorf("events = %+v", events)
	}
}

func TestUpdateTask_InvalidStatusLeavesTaskUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	_, err := f.tasks.UpdateTask(ctx, f.alice.ID, task.ID, models.TaskPatch{Status: models.Some(models.Status("archived"))})
	wantKind(t, err, ErrInvalidArgument)

	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Status != models.StatusTodo {
		t.Errorf("Status = %q, want todo", list[0].Status)
	}
	if n := len(f.events.all()); n != 1 {
		t.Errorf("events = %d, want only the create", n)
	}
}

func TestUpdateTask_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	_, err := f.tasks.UpdateTask(ctx, f.alice.ID, "missing", models.TaskPatch{Title: models.Some("x")})
	wantKind(t, err, ErrNotFound)
	if Message(err) != MsgTaskNotFound {
		t.Errorf("message = %q", Message(err))
	}

	_, err = f.tasks.UpdateTask(ctx, f.bob.ID, task.ID, models.TaskPatch{Title: models.Some("hijack")})
	wantKind(t, err, ErrForbidden)
	if Message(err) != MsgNoPermissionUpdate {
		t.Errorf("message = %q", Message(err))
	}

	_, err = f.tasks.UpdateTask(ctx, f.alice.ID, task.ID, models.TaskPatch{AssigneeID: models.Some("ghost")})
	wantKind(t, err, ErrInvalidArgument)

	list, _ := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if list[0].Title != "Roadmap" || list[0].Assignee != nil {
		t.Errorf("rejected updates changed task: %+v", list[0])
	}
}

func TestDeleteTask_Idempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	if err := f.tasks.DeleteTask(ctx, f.alice.ID, task.ID); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		wantKind(t, f.tasks.DeleteTask(ctx, f.alice.ID, task.ID), ErrNotFound)
	}

	events := f.events.all()
	if len(events) != 2 {
		t.Fatalf("events = %d, want create + one delete", len(events))
	}
	del := events[1]
	if del.Type != models.EventTaskDelete || del.TaskID != task.ID || del.Task != nil {
		t.Errorf("delete event = %+v", del)
	}
	if id, ok := del.Payload().(string); !ok || id != task.ID {
		t.Errorf("delete payload = %#v, want bare id", del.Payload())
	}
}

func TestDeleteTask_NotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	err := f.tasks.DeleteTask(ctx, f.bob.ID, task.ID)
	wantKind(t, err, ErrForbidden)
	if Message(err) != MsgNoPermissionDelete {
		t.Errorf("message = %q", Message(err))
	}
	list, _ := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if len(list) != 1 {
		t.Error("task deleted by non-owner")
	}
}

// failingStore aborts every Update after fn has run, simulating a commit
// failure.
type failingStore struct {
	store.Store
}

var errCommit = errors.New("commit failed")

func (s failingStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	return s.Store.Update(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errCommit
	})
}

func TestFailedWriteEmitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "Roadmap")

	o, _ := authz.NewOwnership()
	broken := NewTaskService(failingStore{f.store}, o, f.events, time.Second)

	_, err := broken.CreateTask(ctx, f.alice.ID, f.project.ID, models.TaskFields{Title: "lost"})
	wantKind(t, err, ErrStoreUnavailable)
	_, err = broken.UpdateTask(ctx, f.alice.ID, task.ID, models.TaskPatch{Title: models.Some("lost")})
	wantKind(t, err, ErrStoreUnavailable)
	wantKind(t, broken.DeleteTask(ctx, f.alice.ID, task.ID), ErrStoreUnavailable)

	if n := len(f.events.all()); n != 1 {
		t.Errorf("events = %d, want only the initial create", n)
	}
	list, _ := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if len(list) != 1 || list[0].Title != "Roadmap" {
		t.Errorf("failed writes changed state: %+v", list)
	}
}

// Events for one task are emitted in the order writes commit, so the last
// event always matches the stored state.
func TestUpdateTask_EventOrderMatchesWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createTask(t, "0")

	const writers = 16
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := string(rune('a' + i))
			if _, err := f.tasks.UpdateTask(ctx, f.alice.ID, task.ID, models.TaskPatch{Title: models.Some(title)}); err != nil {
				t.Errorf("UpdateTask() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	events := f.events.all()
	if len(events) != writers+1 {
		t.Fatalf("events = %d, want %d", len(events), writers+1)
	}
	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if last := events[len(events)-1].Task.Title; last != list[0].Title {
		t.Errorf("last event title %q != stored title %q", last, list[0].Title)
	}
	if n := f.tasks.locks.size(); n != 0 {
		t.Errorf("keyed mutex leaked %d entries", n)
	}
}

func TestResolveAssignee_DanglingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	err := f.store.Update(ctx, func(tx store.Tx) error {
		return tx.PutTask(&models.Task{
			ID: "t-dangling", Title: "orphan", Status: models.StatusTodo, Project: f.project.ID,
			Assignee: &models.UserRef{ID: "deleted-user"},
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	list, err := f.tasks.ListTasks(ctx, f.alice.ID, f.project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Assignee != nil {
		t.Errorf("dangling assignee = %+v, want nil", list[0].Assignee)
	}
}
