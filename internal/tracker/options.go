// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/metrics"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
)

// Authorizer decides project ownership. *authz.Ownership implements it.
type Authorizer interface {
	RequireOwnership(project *models.Project, callerID string, act authz.Action) error
}

// DefaultOpTimeout bounds a store transaction when none is configured.
const DefaultOpTimeout = 5 * time.Second

type base struct {
	store     store.Store
	authz     Authorizer
	opTimeout time.Duration
	now       func() time.Time
	newID     func() (string, error)
}

func newBase(s store.Store, a Authorizer, opTimeout time.Duration) base {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return base{
		store:     s,
		authz:     a,
		opTimeout: opTimeout,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newUUIDv7,
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (b *base) view(ctx context.Context, op string, fn func(store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()
	start := time.Now()
	err := b.store.View(ctx, fn)
	metrics.RecordStoreTx(op, time.Since(start), unexpected(err))
	return err
}

func (b *base) update(ctx context.Context, op string, fn func(store.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()
	start := time.Now()
	err := b.store.Update(ctx, fn)
	metrics.RecordStoreTx(op, time.Since(start), unexpected(err))
	return err
}

// unexpected drops classified domain errors so store metrics only count
// real failures.
func unexpected(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind != ErrStoreUnavailable {
		return nil
	}
	return err
}
