// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package websocket pushes task mutation events to connected sessions.

The package uses gorilla/websocket with the hub-client architecture: a Hub
owns the set of connected clients and their project subscriptions, and each
Client runs a read pump and a write pump.

Fan-out is scoped by project. A session receives events only for projects
it has subscribed to, and a subscription is granted only to the project
owner:

	→ {"type":"subscribe","data":{"projectId":"..."}}
	← {"type":"subscribed","data":{"projectId":"..."}}
	→ {"type":"unsubscribe","data":{"projectId":"..."}}
	→ {"type":"ping"}
	← {"type":"pong"}

Server events:

	{"type":"taskCreate","data":{...task...}}
	{"type":"taskUpdate","data":{...task...}}
	{"type":"taskDelete","data":"<task id>"}

Handshake:

The Handler verifies the bearer credential (Authorization header,
x-auth-token header or token query parameter) before upgrading. A missing
or invalid credential is answered with HTTP 401 and the connection is never
upgraded. Origins are checked against realtime.allowed_origins.

Slow clients:

Each client has a bounded send buffer. A client whose buffer is full when
an event is delivered is disconnected rather than allowed to stall the
hub.
*/
package websocket
