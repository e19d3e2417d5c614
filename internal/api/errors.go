// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// Error codes carried in the response body.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

const msgServerError = "Server error"

// errorStatus maps err onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, tracker.ErrInvalidArgument):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, tracker.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, tracker.ErrForbidden):
		return http.StatusUnauthorized, CodeForbidden
	case errors.Is(err, tracker.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError responds with the mapped status and the error's client-facing
// message. Internal errors never leak their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	msg := tracker.Message(err)
	switch {
	case status == http.StatusInternalServerError:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("API error")
		msg = msgServerError
	case status == http.StatusConflict:
		msg = "Username already exists"
	case msg == "":
		msg = http.StatusText(status)
	}

	respondError(w, r, status, code, msg)
}
