// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package api exposes the tracker over HTTP using the chi router.

Routes:

	POST   /api/auth/register     create a user                 201 User
	POST   /api/auth/login        exchange password for token   200 {token,user}
	GET    /api/projects          caller's projects             200 Project[]
	POST   /api/projects          create a project              201 Project
	GET    /api/tasks/{projectId} tasks of an owned project     200 Task[]
	POST   /api/tasks             create a task                 201 Task
	PUT    /api/tasks/{taskId}    partial update                200 Task
	DELETE /api/tasks/{taskId}    delete                        200 {msg}
	GET    /api/health            store ping                    200/503
	GET    /api/ws                realtime session (websocket)
	GET    /metrics               Prometheus exposition

Project and task routes require a bearer credential in the Authorization
header (or the legacy x-auth-token header).

Successful responses carry the entity itself. Failures carry

	{"msg": "...", "code": "NOT_FOUND", "request_id": "..."}

with status codes mapped from the tracker error taxonomy:

	tracker.ErrInvalidArgument  400 VALIDATION_ERROR
	tracker.ErrUnauthenticated  401 UNAUTHORIZED
	tracker.ErrForbidden        401 FORBIDDEN
	tracker.ErrNotFound         404 NOT_FOUND
	auth.ErrUsernameTaken       409 CONFLICT
	anything else               500 INTERNAL_ERROR

Forbidden is reported as 401 to keep the status existing clients expect.

Middleware order: request id, real IP, panic recovery, access log, CORS,
Prometheus metrics, then per-group rate limiting, request timeout and
compression. The websocket route is excluded from the timeout and
compression because both would break a long-lived hijacked connection.
*/
package api
