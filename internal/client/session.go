// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
)

const sessionWriteWait = 10 * time.Second

// ErrSessionClosed is returned by calls on a session whose connection is gone.
var ErrSessionClosed = errors.New("realtime session closed")

// RealtimeError is an error message from the server in reply to a
// subscribe request.
type RealtimeError struct {
	ProjectID string
	Msg       string
}

func (e *RealtimeError) Error() string {
	if e.ProjectID != "" {
		return fmt.Sprintf("realtime: %s (project %s)", e.Msg, e.ProjectID)
	}
	return "realtime: " + e.Msg
}

// Listener receives every message read from the connection. It runs on the
// read goroutine and must not block.
type Listener func(models.Message)

// Session is one realtime connection. Messages are read on a single
// goroutine and fanned out to listeners in arrival order.
type Session struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
	err       error

	done chan struct{}
}

// Dial opens a session at wsURL, passing token as the handshake
// credential. A rejected handshake returns the server's *APIError.
func Dial(ctx context.Context, wsURL, token string) (*Session, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			return nil, decodeAPIError(resp.StatusCode, data)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	s := &Session{
		conn:      conn,
		listeners: make(map[uint64]Listener),
		done:      make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Listen registers fn and returns a function that removes it.
func (s *Session) Listen(fn Listener) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Subscribe asks for projectID's events and waits for the server's answer.
// Once it returns nil, every later change to the project is delivered.
func (s *Session) Subscribe(ctx context.Context, projectID string) error {
	result := make(chan error, 1)
	remove := s.Listen(func(msg models.Message) {
		switch msg.Type {
		case models.MessageSubscribed:
			var req models.SubscribeRequest
			if json.Unmarshal(msg.Data, &req) == nil && req.ProjectID == projectID {
				trySend(result, nil)
			}
		case models.MessageError:
			var data models.ErrorData
			if json.Unmarshal(msg.Data, &data) == nil && data.ProjectID == projectID {
				trySend(result, &RealtimeError{ProjectID: projectID, Msg: data.Msg})
			}
		}
	})
	defer remove()

	if err := s.send(models.MessageSubscribe, models.SubscribeRequest{ProjectID: projectID}); err != nil {
		return err
	}
	return s.wait(ctx, result)
}

// Unsubscribe stops projectID's events. The server does not acknowledge it.
func (s *Session) Unsubscribe(projectID string) error {
	return s.send(models.MessageUnsubscribe, models.SubscribeRequest{ProjectID: projectID})
}

// Ping round-trips an application ping. Messages sent before it have been
// processed by the server when it returns.
func (s *Session) Ping(ctx context.Context) error {
	result := make(chan error, 1)
	remove := s.Listen(func(msg models.Message) {
		if msg.Type == models.MessagePong {
			trySend(result, nil)
		}
	})
	defer remove()

	if err := s.send(models.MessagePing, nil); err != nil {
		return err
	}
	return s.wait(ctx, result)
}

// Done is closed when the connection ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns why the connection ended, or nil while it is open or after a
// normal close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends a close frame and closes the connection.
func (s *Session) Close() error {
	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Session) send(typ string, data interface{}) error {
	b, err := models.NewMessage(typ, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func (s *Session) wait(ctx context.Context, result <-chan error) error {
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !isNormalClose(err) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Warn().Err(err).Msg("Ignoring malformed realtime message")
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg models.Message) {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
}

// isNormalClose reports a close handshake from either side, or a read on a
// connection Close already shut.
func isNormalClose(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
		return true
	}
	return false
}

func trySend(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
