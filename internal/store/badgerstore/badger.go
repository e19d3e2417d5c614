// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package badgerstore implements store.Store on BadgerDB.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/store"
)

// maxConflictRetries bounds re-execution of an Update function after
// badger.ErrConflict.
const maxConflictRetries = 8

// Store is a BadgerDB-backed document store.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a durable store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	return open(opts)
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already open database.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Update runs fn in a read-write transaction, retrying on conflict.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	for attempt := 1; ; attempt++ {
		if err := s.check(ctx); err != nil {
			return err
		}
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(&tx{txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt >= maxConflictRetries {
			return fmt.Errorf("%w: gave up after %d attempts", store.ErrConflict, attempt)
		}
		logging.Debug().Int("attempt", attempt).Msg("badger transaction conflict, retrying")
	}
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return store.ErrClosed
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return ctx.Err()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Warningf(f string, v ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Infof(f string, v ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(f, v...)
}

func (badgerLogger) Debugf(f string, v ...interface{}) {
	logging.Trace().Str("component", "badger").Msgf(f, v...)
}
