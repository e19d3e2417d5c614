// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/tracker"
)

const (
	writeWait             = 10 * time.Second
	pongWait              = 60 * time.Second
	pingPeriod            = (pongWait * 9) / 10
	defaultMaxMessageSize = 64 * 1024
)

const (
	msgProjectIDRequired = "projectId is required"
	msgUnknownType       = "Unknown message type"
	msgMalformed         = "Malformed message"
)

// clientIDCounter hands out monotonically increasing ids so broadcasts
// iterate clients in a stable order.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	maxMessageSize int64

	// projects is guarded by hub.mu.
	projects map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a Client for an authenticated user.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:             clientIDCounter.Add(1),
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, hub.sendBuffer),
		userID:         userID,
		maxMessageSize: defaultMaxMessageSize,
		projects:       make(map[string]struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start registers the client with the hub and begins pumping.
func (c *Client) Start() {
	c.hub.register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Warn().Err(err).Str("user_id", c.userID).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.replyError(msgMalformed, "")
		return
	}

	switch msg.Type {
	case models.MessagePing:
		c.reply(models.MessagePong, nil)

	case models.MessageSubscribe:
		req, ok := c.parseSubscribe(msg.Data)
		if !ok {
			return
		}
		if err := c.hub.authz.Authorize(c.ctx, c.userID, req.ProjectID); err != nil {
			text := tracker.Message(err)
			if text == "" {
				text = "Server error"
			}
			logging.Debug().Err(err).Str("user_id", c.userID).Str("project_id", req.ProjectID).Msg("subscription refused")
			c.replyError(text, req.ProjectID)
			return
		}
		if c.hub.subscribe(c, req.ProjectID) {
			c.reply(models.MessageSubscribed, req)
		}

	case models.MessageUnsubscribe:
		if req, ok := c.parseSubscribe(msg.Data); ok {
			c.hub.unsubscribe(c, req.ProjectID)
		}

	default:
		c.replyError(msgUnknownType, "")
	}
}

func (c *Client) parseSubscribe(raw json.RawMessage) (models.SubscribeRequest, bool) {
	var req models.SubscribeRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			c.replyError(msgMalformed, "")
			return req, false
		}
	}
	if req.ProjectID == "" {
		c.replyError(msgProjectIDRequired, "")
		return req, false
	}
	return req, true
}

func (c *Client) reply(typ string, data interface{}) {
	b, err := models.NewMessage(typ, data)
	if err != nil {
		logging.Error().Err(err).Str("type", typ).Msg("failed to encode websocket reply")
		return
	}
	if c.hub.enqueue(c, b) {
		metrics.WSMessagesSent.Inc()
	}
}

func (c *Client) replyError(text, projectID string) {
	c.reply(models.MessageError, models.ErrorData{Msg: text, ProjectID: projectID})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Str("user_id", c.userID).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
