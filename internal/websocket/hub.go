// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DefaultBroadcastBuffer is the capacity of the hub's inbound event queue.
const DefaultBroadcastBuffer = 256

// Authorizer decides whether a caller may subscribe to a project.
// tracker.ProjectService satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, callerID, projectID string) error
}

type projectMessage struct {
	projectID string
	data      []byte
}

// Hub maintains the set of active clients and their project subscriptions.
type Hub struct {
	authz      Authorizer
	sendBuffer int

	broadcast chan projectMessage

	mu       sync.RWMutex
	clients  map[*Client]bool
	projects map[string]map[*Client]struct{}
}

// NewHub creates a Hub. sendBuffer is the per-client outbound queue size.
func NewHub(authz Authorizer, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		authz:      authz,
		sendBuffer: sendBuffer,
		broadcast:  make(chan projectMessage, DefaultBroadcastBuffer),
		clients:    make(map[*Client]bool),
		projects:   make(map[string]map[*Client]struct{}),
	}
}

// RunWithContext delivers queued events until ctx is canceled, then closes
// every connected client and returns ctx.Err().
//
// Delivery happens on this goroutine only, so events reach each client in
// the order BroadcastToProject was called.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

// BroadcastToProject queues data for every client subscribed to projectID.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastToProject(projectID string, data []byte) {
	select {
	case h.broadcast <- projectMessage{projectID: projectID, data: data}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("project_id", projectID).Msg("broadcast channel full, dropping project message")
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		logging.Info().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// removeLocked drops c from every index and closes its send channel. It
// reports false when c was already removed. Callers hold h.mu.
func (h *Hub) removeLocked(c *Client) bool {
	if !h.clients[c] {
		return false
	}
	for pid := range c.projects {
		h.unsubscribeLocked(c, pid)
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

// subscribe adds c to the fan-out set of projectID. It reports false when
// c has already been disconnected.
func (h *Hub) subscribe(c *Client, projectID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return false
	}
	if _, ok := c.projects[projectID]; ok {
		return true
	}
	subs := h.projects[projectID]
	if subs == nil {
		subs = make(map[*Client]struct{})
		h.projects[projectID] = subs
	}
	subs[c] = struct{}{}
	c.projects[projectID] = struct{}{}
	metrics.WSSubscriptions.Inc()
	return true
}

func (h *Hub) unsubscribe(c *Client, projectID string) {
	h.mu.Lock()
	h.unsubscribeLocked(c, projectID)
	h.mu.Unlock()
}

func (h *Hub) unsubscribeLocked(c *Client, projectID string) {
	if _, ok := c.projects[projectID]; !ok {
		return
	}
	delete(c.projects, projectID)
	if subs := h.projects[projectID]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.projects, projectID)
		}
	}
	metrics.WSSubscriptions.Dec()
}

// enqueue hands data to c without blocking. It reports false when c is
// gone or its buffer is full.
func (h *Hub) enqueue(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// deliver sends msg to the project's subscribers in client id order.
// Subscribers whose buffer is full are disconnected.
func (h *Hub) deliver(msg projectMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.projects[msg.projectID]
	if len(subs) == 0 {
		return
	}

	clients := make([]*Client, 0, len(subs))
	for c := range subs {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var slow []*Client
	for _, c := range clients {
		select {
		case c.send <- msg.data:
			metrics.WSMessagesSent.Inc()
		default:
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Str("user_id", c.userID).Uint64("client_id", c.id).Msg("dropping slow websocket client")
		h.removeLocked(c)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, c := range clients {
		h.removeLocked(c)
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SubscriberCount returns the number of clients subscribed to projectID.
func (h *Hub) SubscriberCount(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}
