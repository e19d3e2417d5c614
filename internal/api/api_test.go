// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/events"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/store/badgerstore"
	"github.com/tomtom215/tasksync/internal/tracker"
	"github.com/tomtom215/tasksync/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "json", Output: io.Discard})
}

const testSecret = "api-test-secret-0123456789abcdef0123"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			TokenTTL:          time.Hour,
			BcryptCost:        bcrypt.MinCost,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Events: config.EventsConfig{
			Backend:         config.EventsBackendMemory,
			Topic:           "api.test.tasks",
			BreakerFailures: 5,
			BreakerTimeout:  time.Minute,
		},
		Realtime: config.RealtimeConfig{SendBuffer: 64, MaxMessageSize: 64 * 1024, AllowedOrigins: []string{"*"}},
	}
}

type testServer struct {
	*httptest.Server
	hub  *websocket.Hub
	jwt  *auth.JWTManager
	stop func()
}

// newTestServer wires the full stack against an in-memory store and bus.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig()

	st, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	ownership, err := authz.NewOwnership()
	if err != nil {
		t.Fatalf("NewOwnership: %v", err)
	}
	jwtm, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	accounts, err := auth.NewAccounts(st, jwtm, cfg.Security.BcryptCost)
	if err != nil {
		t.Fatalf("NewAccounts: %v", err)
	}

	bus := events.NewMemoryBus(watermill.NopLogger{})
	publisher := events.NewPublisher(bus.Publisher, cfg.Events)

	projects := tracker.NewProjectService(st, ownership, 0)
	tasks := tracker.NewTaskService(st, ownership, publisher, 0)

	hub := websocket.NewHub(projects, cfg.Realtime.SendBuffer)
	bridge := events.NewBridge(bus.Subscriber, cfg.Events.Topic, hub)

	guard := auth.NewGuard(jwtm)
	handler := NewHandler(HandlerDeps{
		Accounts: accounts,
		Projects: projects,
		Tasks:    tasks,
		Store:    st,
		Breaker:  publisher,
		Realtime: hub,
	})
	rt := NewRouter(cfg, handler, guard, websocket.NewHandler(hub, guard, cfg.Realtime, ErrorResponder()))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, serve := range []func(context.Context) error{hub.Serve, publisher.Serve, bridge.Serve} {
		wg.Add(1)
		go func(serve func(context.Context) error) {
			defer wg.Done()
			_ = serve(ctx)
		}(serve)
	}

	srv := httptest.NewServer(rt.SetupChi())
	ts := &testServer{Server: srv, hub: hub, jwt: jwtm}
	ts.stop = func() {
		srv.Close()
		cancel()
		wg.Wait()
		_ = bus.Close()
		_ = st.Close()
	}
	t.Cleanup(ts.stop)

	select {
	case <-bridge.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("event bridge never subscribed")
	}
	return ts
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (r *response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("decode %s: %v", r.body, err)
	}
}

func (r *response) errorBody(t *testing.T) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	r.decode(t, &e)
	return e
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *response {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return &response{status: resp.StatusCode, body: data, header: resp.Header}
}

func (ts *testServer) mustStatus(t *testing.T, want int, method, path, token string, body interface{}) *response {
	t.Helper()
	resp := ts.do(t, method, path, token, body)
	if resp.status != want {
		t.Fatalf("%s %s = %d (%s), want %d", method, path, resp.status, resp.body, want)
	}
	return resp
}

type account struct {
	id    string
	token string
}

// signup registers and logs in username.
func (ts *testServer) signup(t *testing.T, username string) account {
	t.Helper()
	creds := CredentialsRequest{Username: username, Password: "password-" + username}
	ts.mustStatus(t, http.StatusCreated, http.MethodPost, "/api/auth/register", "", creds)

	var login struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	ts.mustStatus(t, http.StatusOK, http.MethodPost, "/api/auth/login", "", creds).decode(t, &login)
	if login.Token == "" || login.User.ID == "" {
		t.Fatalf("login response missing token or user: %+v", login)
	}
	return account{id: login.User.ID, token: login.Token}
}

func (ts *testServer) createProject(t *testing.T, a account, name string) string {
	t.Helper()
	var p struct {
		ID    string `json:"id"`
		Owner string `json:"owner"`
	}
	ts.mustStatus(t, http.StatusCreated, http.MethodPost, "/api/projects", a.token, map[string]string{"name": name}).decode(t, &p)
	if p.Owner != a.id {
		t.Fatalf("project owner = %q, want %q", p.Owner, a.id)
	}
	return p.ID
}
