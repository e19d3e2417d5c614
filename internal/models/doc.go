// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package models defines the entities shared by the server, the store
backends and the client.

JSON field names follow the wire contract used by existing clients:

	{
	  "id": "0192...",
	  "title": "Write docs",
	  "description": "",
	  "status": "todo",
	  "assignee": {"id": "0192...", "username": "alice"},
	  "dueDate": "2026-10-20T00:00:00Z",
	  "project": "0192...",
	  "createdAt": "2026-10-14T09:30:00Z"
	}

TaskPatch is an explicit optional-field structure: only keys present in the
request body are applied, null clears nullable fields, and identity fields
(id, project, createdAt) have no representation at all.
*/
package models
