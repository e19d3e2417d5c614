// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package events carries committed task events from the services to the
realtime hub through a Watermill pub/sub.

	TaskService.Emit ─▶ Publisher queue ─▶ breaker ─▶ topic ─▶ Bridge ─▶ Hub

Backends (config events.backend):

  - memory: in-process gochannel; publishing blocks until the bridge acks,
    which keeps per-topic order across the single publisher goroutine
  - nats: core NATS via watermill-nats with JetStream disabled; every
    server instance subscribes without a queue group so each one fans out
    to its own websocket sessions

Emit never blocks the request: events are queued and a single publisher
goroutine drains the queue in order. A full queue or an open circuit drops
the event, logs it and counts it; clients recover by re-listing.
*/
package events
