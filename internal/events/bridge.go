// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/metrics"
)

// Broadcaster delivers an encoded realtime message to every session
// subscribed to projectID. *websocket.Hub implements it.
type Broadcaster interface {
	BroadcastToProject(projectID string, data []byte)
}

// Bridge forwards bus messages to a Broadcaster.
type Bridge struct {
	sub   message.Subscriber
	topic string
	out   Broadcaster

	readyOnce sync.Once
	ready     chan struct{}
}

// NewBridge creates a bridge reading topic from sub.
func NewBridge(sub message.Subscriber, topic string, out Broadcaster) *Bridge {
	return &Bridge{sub: sub, topic: topic, out: out, ready: make(chan struct{})}
}

// Ready is closed once the first subscription is established.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Serve consumes messages until ctx is done or the subscription closes.
func (b *Bridge) Serve(ctx context.Context) error {
	msgs, err := b.sub.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}
	logging.Info().Str("topic", b.topic).Msg("Event bridge subscribed")
	b.readyOnce.Do(func() { close(b.ready) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", b.topic)
			}
			b.handle(msg)
		}
	}
}

// handle always acks: a malformed event would fail again on redelivery.
func (b *Bridge) handle(msg *message.Message) {
	defer msg.Ack()

	ev, err := Decode(msg)
	if err != nil {
		logging.Error().Err(err).Msg("Dropping undecodable task event")
		return
	}
	data, err := WireMessage(ev)
	if err != nil {
		logging.Error().Err(err).Str("task_id", ev.TaskID).Msg("Failed to render task event")
		return
	}
	b.out.BroadcastToProject(ev.ProjectID, data)
	metrics.EventsDelivered.WithLabelValues(string(ev.Type)).Inc()
}
