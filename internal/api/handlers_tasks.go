// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// MsgTaskRemoved is the body message of a successful delete.
const MsgTaskRemoved = "Task removed"

// ListTasks returns the tasks of a project the caller owns.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context(), auth.CallerID(r.Context()), chi.URLParam(r, "projectId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask adds a task to a project the caller owns.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	fields, err := req.Fields()
	if err != nil {
		writeError(w, r, tracker.Invalid(err))
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), auth.CallerID(r.Context()), req.ProjectID, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask merges the fields present in the body onto the task.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), auth.CallerID(r.Context()), chi.URLParam(r, "taskId"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask removes the task.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.DeleteTask(r.Context(), auth.CallerID(r.Context()), chi.URLParam(r, "taskId")); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &MessageResponse{Msg: MsgTaskRemoved})
}
