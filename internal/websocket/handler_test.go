// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// ownerAuthorizer grants subscriptions to projects listed for a user.
type ownerAuthorizer map[string]string

func (a ownerAuthorizer) Authorize(_ context.Context, callerID, projectID string) error {
	if a[projectID] != callerID {
		return tracker.Errorf(tracker.ErrNotFound, tracker.MsgProjectNotFound)
	}
	return nil
}

type wsFixture struct {
	hub    *Hub
	server *httptest.Server
	jwt    *auth.JWTManager
}

func newWSFixture(t *testing.T, origins []string) *wsFixture {
	t.Helper()

	jwtm, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret: strings.Repeat("s", 32),
		TokenTTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	hub := NewHub(ownerAuthorizer{"p-alice": "alice"}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()

	onError := func(w http.ResponseWriter, _ *http.Request, err error) {
		http.Error(w, tracker.Message(err), http.StatusUnauthorized)
	}
	h := NewHandler(hub, auth.NewGuard(jwtm), config.RealtimeConfig{
		SendBuffer:     16,
		MaxMessageSize: 4096,
		AllowedOrigins: origins,
	}, onError)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &wsFixture{hub: hub, server: srv, jwt: jwtm}
}

func (f *wsFixture) url(query string) string {
	u := "ws" + strings.TrimPrefix(f.server.URL, "http")
	if query != "" {
		u += "?" + query
	}
	return u
}

func (f *wsFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	token, err := f.jwt.GenerateToken(userID, userID)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(f.url("token="+token), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	b, err := models.NewMessage(typ, data)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) models.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var msg models.Message
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("Unmarshal %s: %v", b, err)
	}
	return msg
}

func TestHandler_HandshakeRejected(t *testing.T) {
	f := newWSFixture(t, []string{"*"})

	tests := []struct {
		name  string
		query string
	}{
		{"no token", ""},
		{"garbage token", "token=not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(f.url(tt.query), nil)
			if err == nil {
				_ = conn.Close()
				t.Fatal("expected handshake failure")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %v, want 401", resp)
			}
			_ = resp.Body.Close()
		})
	}

	if f.hub.GetClientCount() != 0 {
		t.Errorf("rejected handshakes registered %d clients", f.hub.GetClientCount())
	}
}

func TestHandler_BearerHeader(t *testing.T) {
	f := newWSFixture(t, []string{"*"})
	token, _ := f.jwt.GenerateToken("alice", "alice")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(f.url(""), header)
	if err != nil {
		t.Fatalf("Dial with bearer header: %v", err)
	}
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestHandler_OriginRejected(t *testing.T) {
	f := newWSFixture(t, []string{"http://app.example"})
	token, _ := f.jwt.GenerateToken("alice", "alice")

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(f.url("token="+token), header)
	if err == nil {
		t.Fatal("expected origin rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %v, want 403", resp)
	}
	_ = resp.Body.Close()

	header.Set("Origin", "http://app.example")
	conn, resp, err := websocket.DefaultDialer.Dial(f.url("token="+token), header)
	if err != nil {
		t.Fatalf("allowed origin: %v", err)
	}
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestHandler_PingPong(t *testing.T) {
	f := newWSFixture(t, []string{"*"})
	conn := f.dial(t, "alice")

	send(t, conn, models.MessagePing, nil)
	if msg := recv(t, conn); msg.Type != models.MessagePong {
		t.Fatalf("got %q, want pong", msg.Type)
	}
}

func TestHandler_SubscribeAndReceive(t *testing.T) {
	f := newWSFixture(t, []string{"*"})
	conn := f.dial(t, "alice")

	send(t, conn, models.MessageSubscribe, models.SubscribeRequest{ProjectID: "p-alice"})
	msg := recv(t, conn)
	if msg.Type != models.MessageSubscribed {
		t.Fatalf("got %q (%s), want subscribed", msg.Type, msg.Data)
	}
	var ack models.SubscribeRequest
	if err := json.Unmarshal(msg.Data, &ack); err != nil || ack.ProjectID != "p-alice" {
		t.Fatalf("ack = %s, %v", msg.Data, err)
	}

	event, _ := models.NewMessage(string(models.EventTaskDelete), "t-1")
	f.hub.BroadcastToProject("p-other", []byte(`{"type":"taskDelete","data":"nope"}`))
	f.hub.BroadcastToProject("p-alice", event)

	msg = recv(t, conn)
	if msg.Type != string(models.EventTaskDelete) || string(msg.Data) != `"t-1"` {
		t.Fatalf("got %s %s, want taskDelete \"t-1\"", msg.Type, msg.Data)
	}
}

func TestHandler_SubscribeRefused(t *testing.T) {
	f := newWSFixture(t, []string{"*"})
	conn := f.dial(t, "bob")

	send(t, conn, models.MessageSubscribe, models.SubscribeRequest{ProjectID: "p-alice"})
	msg := recv(t, conn)
	if msg.Type != models.MessageError {
		t.Fatalf("got %q, want error", msg.Type)
	}
	var data models.ErrorData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if data.Msg != tracker.MsgProjectNotFound || data.ProjectID != "p-alice" {
		t.Errorf("error data = %+v", data)
	}
	if n := f.hub.SubscriberCount("p-alice"); n != 0 {
		t.Errorf("refused subscription counted: %d", n)
	}
}

func TestHandler_BadMessages(t *testing.T) {
	f := newWSFixture(t, []string{"*"})
	conn := f.dial(t, "alice")

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"not json", "{", msgMalformed},
		{"unknown type", `{"type":"dance"}`, msgUnknownType},
		{"missing project", `{"type":"subscribe","data":{}}`, msgProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)); err != nil {
				t.Fatalf("WriteMessage: %v", err)
			}
			msg := recv(t, conn)
			var data models.ErrorData
			_ = json.Unmarshal(msg.Data, &data)
			if msg.Type != models.MessageError || data.Msg != tt.want {
				t.Errorf("got %s %+v, want error %q", msg.Type, data, tt.want)
			}
		})
	}
}
