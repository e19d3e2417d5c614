// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package models

import "github.com/goccy/go-json"

// EventType names a task mutation event.
type EventType string

const (
	EventTaskCreate EventType = "taskCreate"
	EventTaskUpdate EventType = "taskUpdate"
	EventTaskDelete EventType = "taskDelete"
)

// TaskEvent is emitted once per committed task mutation. Task is set for
// create and update; delete carries only TaskID.
type TaskEvent struct {
	Type      EventType `json:"type"`
	ProjectID string    `json:"projectId"`
	TaskID    string    `json:"taskId"`
	Task      *Task     `json:"task,omitempty"`
}

// Payload returns the value pushed to realtime sessions: the full task for
// create/update and the bare id string for delete.
func (e *TaskEvent) Payload() interface{} {
	if e.Type == EventTaskDelete {
		return e.TaskID
	}
	return e.Task
}

// Realtime message types that are not task events.
const (
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageSubscribed  = "subscribed"
	MessagePing        = "ping"
	MessagePong        = "pong"
	MessageError       = "error"
)

// Message is the realtime wire envelope in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribeRequest is the data of subscribe and unsubscribe messages.
type SubscribeRequest struct {
	ProjectID string `json:"projectId"`
}

// ErrorData is the data of an error message.
type ErrorData struct {
	Msg       string `json:"msg"`
	ProjectID string `json:"projectId,omitempty"`
}

// NewMessage marshals data into an envelope.
func NewMessage(typ string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Message{Type: typ, Data: raw})
}
