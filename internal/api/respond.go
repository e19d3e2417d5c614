// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Msg       string `json:"msg"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// MessageResponse is the body of responses that return only a message.
type MessageResponse struct {
	Msg string `json:"msg"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	respondJSON(w, status, &ErrorResponse{
		Msg:       msg,
		Code:      code,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// decodeJSON reads the body into dst. It writes a 400 and returns false if
// the body is missing, oversized or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, CodeValidation, "Request body too large")
			return false
		}
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Unable to read request body")
		return false
	}
	if len(body) == 0 {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, invalidJSONMessage(err))
		return false
	}
	return true
}

// invalidJSONMessage keeps messages produced by custom decoders, which
// are client-facing, and hides raw syntax errors.
func invalidJSONMessage(err error) string {
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typeErr) {
		return "Invalid JSON body"
	}
	return err.Error()
}

// decodeAndValidate decodes the body and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message)
		return false
	}
	return true
}
