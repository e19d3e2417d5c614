// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

// Metadata keys set on every message.
const (
	MetadataProjectID = "project_id"
	MetadataEventType = "event_type"
	MetadataTaskID    = "task_id"
)

// Encode serialises ev into a Watermill message.
func Encode(ev models.TaskEvent) (*message.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal task event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataProjectID, ev.ProjectID)
	msg.Metadata.Set(MetadataEventType, string(ev.Type))
	msg.Metadata.Set(MetadataTaskID, ev.TaskID)
	return msg, nil
}

// Decode parses a message produced by Encode.
func Decode(msg *message.Message) (models.TaskEvent, error) {
	var ev models.TaskEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal task event %s: %w", msg.UUID, err)
	}
	if ev.ProjectID == "" {
		ev.ProjectID = msg.Metadata.Get(MetadataProjectID)
	}
	switch ev.Type {
	case models.EventTaskCreate, models.EventTaskUpdate:
		if ev.Task == nil {
			return ev, fmt.Errorf("task event %s has no task", msg.UUID)
		}
	case models.EventTaskDelete:
		if ev.TaskID == "" {
			return ev, fmt.Errorf("delete event %s has no task id", msg.UUID)
		}
	default:
		return ev, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}

// WireMessage renders ev as the realtime envelope sent to sessions.
func WireMessage(ev models.TaskEvent) ([]byte, error) {
	return models.NewMessage(string(ev.Type), ev.Payload())
}
