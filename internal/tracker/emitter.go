// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"context"

	"github.com/tomtom215/tasksync/internal/models"
)

// Emitter receives committed task events. Emit must not block on delivery.
type Emitter interface {
	Emit(ctx context.Context, ev models.TaskEvent)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev models.TaskEvent)

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, ev models.TaskEvent) { f(ctx, ev) }

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, models.TaskEvent) {}
