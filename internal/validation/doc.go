// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package validation validates decoded request bodies with
// go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Field names in messages use the
// json tag so clients see the names they sent:
//
//	type createProjectRequest struct {
//	    Name string `json:"name" validate:"required,max=200"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
//
// Custom tags:
//
//	taskstatus  one of todo, in-progress, done (empty allowed)
//	duedate     RFC 3339 timestamp or YYYY-MM-DD date
package validation
