// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package tracker

import (
	"errors"
	"fmt"

	"github.com/tomtom215/tasksync/internal/store"
)

// Error taxonomy. Every error returned by the services matches exactly one
// of these with errors.Is.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error carries a client-facing message alongside its kind.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is matches the kind sentinel.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Invalid wraps a validation failure as ErrInvalidArgument; the message is
// the cause's text.
func Invalid(err error) error {
	return &Error{Kind: ErrInvalidArgument, Msg: err.Error(), Err: err}
}

// Message returns the client-facing message of err, or "" if it has none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// storeErr passes classified errors through and marks everything else,
// including store.ErrConflict after retries, as ErrStoreUnavailable.
func storeErr(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Kind: ErrNotFound, Msg: "Not found", Err: err}
	}
	return &Error{Kind: ErrStoreUnavailable, Msg: "Server error", Err: fmt.Errorf("%s: %w", op, err)}
}
