// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCtx_IncludesContextFields(t *testing.T) {
	buf := captureGlobal(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	ctx = ContextWithUserID(ctx, "user-1")

	Ctx(ctx).Info().Msg("hello")

	entry := decodeLine(t, buf)
	for key, want := range map[string]string{
		"request_id":     "req-1",
		"correlation_id": "corr-1",
		"user_id":        "user-1",
		"message":        "hello",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestCtx_EmptyContext(t *testing.T) {
	buf := captureGlobal(t)
	Ctx(context.Background()).Info().Msg("bare")

	entry := decodeLine(t, buf)
	if _, ok := entry["request_id"]; ok {
		t.Error("request_id should be absent for empty context")
	}
}

func TestSlogHandler(t *testing.T) {
	buf := captureGlobal(t)

	logger := slog.New(NewSlogHandler()).With("service", "hub").WithGroup("evt")
	logger.Warn("restarting", "attempt", 3)

	entry := decodeLine(t, buf)
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["service"] != "hub" {
		t.Errorf("service = %v, want hub", entry["service"])
	}
	if entry["evt.attempt"] != float64(3) {
		t.Errorf("evt.attempt = %v, want 3", entry["evt.attempt"])
	}
}

func TestSlogHandler_GroupScoping(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*slog.Logger) *slog.Logger
		want   map[string]interface{}
		absent []string
	}{
		{
			name: "attrs before group keep their key",
			build: func(l *slog.Logger) *slog.Logger {
				return l.With("service", "hub").WithGroup("evt").With("id", "e1")
			},
			want:   map[string]interface{}{"service": "hub", "evt.id": "e1", "evt.n": float64(1)},
			absent: []string{"evt.service", "id"},
		},
		{
			name: "nested groups",
			build: func(l *slog.Logger) *slog.Logger {
				return l.WithGroup("a").With("x", "1").WithGroup("b")
			},
			want:   map[string]interface{}{"a.x": "1", "a.b.n": float64(1)},
			absent: []string{"a.b.x"},
		},
		{
			name: "group attr and inlined group",
			build: func(l *slog.Logger) *slog.Logger {
				return l.With(slog.Group("req", "id", "r1"), slog.Group("", "flat", true))
			},
			want: map[string]interface{}{"req.id": "r1", "flat": true, "n": float64(1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureGlobal(t)
			tt.build(slog.New(NewSlogHandler())).Info("event", "n", 1)

			entry := decodeLine(t, buf)
			for key, want := range tt.want {
				if entry[key] != want {
					t.Errorf("%s = %v, want %v", key, entry[key], want)
				}
			}
			for _, key := range tt.absent {
				if _, ok := entry[key]; ok {
					t.Errorf("unexpected key %s in %v", key, entry)
				}
			}
		})
	}
}

func TestWatermillLogger(t *testing.T) {
	buf := captureGlobal(t)

	l := NewWatermillLogger().With(watermill.LogFields{"topic": "tasks"})
	l.Error("publish failed", errors.New("boom"), watermill.LogFields{"uuid": "m1"})

	entry := decodeLine(t, buf)
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
	if entry["topic"] != "tasks" || entry["uuid"] != "m1" {
		t.Errorf("fields missing: %v", entry)
	}
	if entry["component"] != "events" {
		t.Errorf("component = %v, want events", entry["component"])
	}
}
