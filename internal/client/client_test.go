// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/tasksync/internal/api"
	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/events"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store/badgerstore"
	"github.com/tomtom215/tasksync/internal/tracker"
	"github.com/tomtom215/tasksync/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "json", Output: io.Discard})
}

// startServer runs the whole server stack on an httptest listener and
// returns its base URL.
func startServer(t *testing.T) string {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Security: config.SecurityConfig{
			JWTSecret:         "client-test-secret-0123456789abcdef",
			TokenTTL:          time.Hour,
			BcryptCost:        bcrypt.MinCost,
			RateLimitDisabled: true,
		},
		Events:   config.EventsConfig{Backend: config.EventsBackendMemory, Topic: "client.test.tasks"},
		Realtime: config.RealtimeConfig{SendBuffer: 64, AllowedOrigins: []string{"*"}},
	}

	st, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	ownership, err := authz.NewOwnership()
	if err != nil {
		t.Fatal(err)
	}
	jwtm, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	accounts, err := auth.NewAccounts(st, jwtm, cfg.Security.BcryptCost)
	if err != nil {
		t.Fatal(err)
	}

	bus := events.NewMemoryBus(watermill.NopLogger{})
	publisher := events.NewPublisher(bus.Publisher, cfg.Events)
	projects := tracker.NewProjectService(st, ownership, 0)
	tasks := tracker.NewTaskService(st, ownership, publisher, 0)
	hub := websocket.NewHub(projects, cfg.Realtime.SendBuffer)
	bridge := events.NewBridge(bus.Subscriber, cfg.Events.Topic, hub)

	guard := auth.NewGuard(jwtm)
	handler := api.NewHandler(api.HandlerDeps{
		Accounts: accounts,
		Projects: projects,
		Tasks:    tasks,
		Store:    st,
		Breaker:  publisher,
		Realtime: hub,
	})
	router := api.NewRouter(cfg, handler, guard, websocket.NewHandler(hub, guard, cfg.Realtime, api.ErrorResponder()))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, serve := range []func(context.Context) error{hub.Serve, publisher.Serve, bridge.Serve} {
		wg.Add(1)
		go func(serve func(context.Context) error) {
			defer wg.Done()
			_ = serve(ctx)
		}(serve)
	}
	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		wg.Wait()
		_ = bus.Close()
		_ = st.Close()
	})

	select {
	case <-bridge.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("event bridge never subscribed")
	}
	return srv.URL
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func signedIn(t *testing.T, baseURL, username string) *APIClient {
	t.Helper()
	ctx := testContext(t)
	c := NewAPIClient(baseURL+"/", nil)
	if _, err := c.Register(ctx, username, "password-"+username); err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	user, err := c.Login(ctx, username, "password-"+username)
	if err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	if user == nil || user.Username != username || c.Token() == "" {
		t.Fatalf("Login(%s) = %+v, token %q", username, user, c.Token())
	}
	return c
}

func dial(t *testing.T, c *APIClient) *Session {
	t.Helper()
	sess, err := Dial(testContext(t), c.RealtimeURL(), c.Token())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAPIClient_Errors(t *testing.T) {
	baseURL := startServer(t)
	ctx := testContext(t)
	alice := signedIn(t, baseURL, "alice")

	tests := []struct {
		name   string
		call   func() error
		status int
		code   string
		msg    string
	}{
		{
			name:   "duplicate username",
			call:   func() error { _, err := alice.Register(ctx, "alice", "another-password"); return err },
			status: http.StatusConflict,
			code:   "CONFLICT",
			msg:    "Username already exists",
		},
		{
			name:   "wrong password",
			call:   func() error { _, err := NewAPIClient(baseURL, nil).Login(ctx, "alice", "nope"); return err },
			status: http.StatusUnauthorized,
			code:   "UNAUTHORIZED",
		},
		{
			name:   "no token",
			call:   func() error { _, err := NewAPIClient(baseURL, nil).ListProjects(ctx); return err },
			status: http.StatusUnauthorized,
			code:   "UNAUTHORIZED",
		},
		{
			name:   "unknown project",
			call:   func() error { _, err := alice.ListTasks(ctx, "missing"); return err },
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
			msg:    tracker.MsgProjectNotFound,
		},
		{
			name:   "blank project name",
			call:   func() error { _, err := alice.CreateProject(ctx, "  "); return err },
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *APIError
			if err := tt.call(); !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status || apiErr.Code != tt.code {
				t.Errorf("error = %+v, want %d %s", apiErr, tt.status, tt.code)
			}
			if tt.msg != "" && apiErr.Msg != tt.msg {
				t.Errorf("msg = %q, want %q", apiErr.Msg, tt.msg)
			}
			if apiErr.RequestID == "" {
				t.Error("error carries no request id")
			}
		})
	}
}

func TestDial_Rejected(t *testing.T) {
	baseURL := startServer(t)
	c := NewAPIClient(baseURL, nil)

	_, err := Dial(testContext(t), c.RealtimeURL(), "not-a-token")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Dial error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Msg != auth.MsgHandshakeInvalidToken {
		t.Errorf("Dial error = %+v", apiErr)
	}
}

func TestSession_SubscribeRefused(t *testing.T) {
	baseURL := startServer(t)
	ctx := testContext(t)
	alice := signedIn(t, baseURL, "alice")
	bob := signedIn(t, baseURL, "bob")

	p, err := alice.CreateProject(ctx, "Launch")
	if err != nil {
		t.Fatal(err)
	}

	_, err = OpenProjectView(ctx, bob, dial(t, bob), p.ID, ViewOptions{})
	var rtErr *RealtimeError
	if !errors.As(err, &rtErr) || rtErr.Msg != tracker.MsgProjectNotFound {
		t.Fatalf("OpenProjectView as non-owner = %v", err)
	}
}

// Two views of the same project converge: A's writes appear in B through
// events, and A's own store reflects its writes without waiting for them.
func TestProjectView_Converges(t *testing.T) {
	baseURL := startServer(t)
	ctx := testContext(t)
	alice := signedIn(t, baseURL, "alice")

	p, err := alice.CreateProject(ctx, "Launch")
	if err != nil {
		t.Fatal(err)
	}
	seed, err := alice.CreateTask(ctx, NewTask{ProjectID: p.ID, Title: "Seed"})
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var seen []string
	viewA, err := OpenProjectView(ctx, alice, dial(t, alice), p.ID, ViewOptions{})
	if err != nil {
		t.Fatalf("OpenProjectView A: %v", err)
	}
	viewB, err := OpenProjectView(ctx, alice, dial(t, alice), p.ID, ViewOptions{
		OnEvent: func(msg models.Message, changed bool) {
			mu.Lock()
			seen = append(seen, msg.Type)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("OpenProjectView B: %v", err)
	}
	if got := viewB.Tasks(); len(got) != 1 || got[0].ID != seed.ID {
		t.Fatalf("initial list = %+v", got)
	}

	created, err := viewA.CreateTask(ctx, NewTask{Title: "Roadmap", Status: "todo", DueDate: "2026-11-01"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := viewA.Store().Get(created.ID); !ok {
		t.Error("creator's own store is missing the created task")
	}
	waitFor(t, "taskCreate in B", func() bool {
		got, ok := viewB.Store().Get(created.ID)
		return ok && got.Title == "Roadmap"
	})

	if _, err := viewA.UpdateTask(ctx, created.ID, TaskChanges{Status: models.Some(models.StatusDone), DueDate: models.Null[time.Time]()}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "taskUpdate in B", func() bool {
		got, _ := viewB.Store().Get(created.ID)
		return got.Status == models.StatusDone && got.DueDate == nil && got.Title == "Roadmap"
	})

	if err := viewA.DeleteTask(ctx, seed.ID); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "taskDelete in B", func() bool {
		_, ok := viewB.Store().Get(seed.ID)
		return !ok
	})

	// Both stores end identical, including duplicate deliveries to A.
	waitFor(t, "A converges", func() bool { return viewA.Store().Len() == 1 })
	a, b := viewA.Tasks(), viewB.Tasks()
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID || a[0].Status != b[0].Status {
		t.Errorf("views diverged: A=%+v B=%+v", a, b)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{string(models.EventTaskCreate), string(models.EventTaskUpdate), string(models.EventTaskDelete)}
	if len(seen) != len(want) {
		t.Fatalf("B saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("B event %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestProjectView_CloseStopsEvents(t *testing.T) {
	baseURL := startServer(t)
	ctx := testContext(t)
	alice := signedIn(t, baseURL, "alice")
	p, _ := alice.CreateProject(ctx, "Launch")

	sess := dial(t, alice)
	view, err := OpenProjectView(ctx, alice, sess, p.ID, ViewOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := view.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sess.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, err := alice.CreateTask(ctx, NewTask{ProjectID: p.ID, Title: "Unseen"}); err != nil {
		t.Fatal(err)
	}
	if err := sess.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if view.Store().Len() != 0 {
		t.Errorf("closed view received events: %+v", view.Tasks())
	}

	if err := view.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := view.Tasks(); len(got) != 1 || got[0].Title != "Unseen" {
		t.Errorf("after Refresh = %+v", got)
	}
}

func TestSession_CloseEndsReadLoop(t *testing.T) {
	baseURL := startServer(t)
	alice := signedIn(t, baseURL, "alice")

	sess, err := Dial(testContext(t), alice.RealtimeURL(), alice.Token())
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Close(); err != nil {
		t.Logf("Close: %v", err)
	}
	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop still running")
	}
	if err := sess.Err(); err != nil {
		t.Errorf("Err() after local close = %v", err)
	}
	if err := sess.Subscribe(context.Background(), "p"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Subscribe after close = %v, want ErrSessionClosed", err)
	}
}
