// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package client is the Go client for a tasksync server.

APIClient calls the REST surface, Session holds one realtime connection,
and ProjectView keeps a TaskStore for one project consistent with the
server:

	api := client.NewAPIClient("http://localhost:5000", nil)
	if _, err := api.Login(ctx, "alice", "secret"); err != nil { ... }
	sess, err := client.Dial(ctx, api.RealtimeURL(), api.Token())
	view, err := client.OpenProjectView(ctx, api, sess, projectID, client.ViewOptions{})
	tasks := view.Tasks()

# Reconciliation

The store has three writers, all keyed by task id:

  - Replace, from listTasks, swaps the whole collection.
  - ApplyCreated, ApplyUpdated and ApplyDeleted, from successful local
    REST calls. Creates are applied locally too, so a client that misses
    its own broadcast still sees the task.
  - ApplyEvent, from pushed taskCreate, taskUpdate and taskDelete events.

Upserts replace in place or append; deletes remove by id. Every writer is
idempotent, so an event that duplicates a local write leaves the store
unchanged. Last write per id wins.

OpenProjectView subscribes before it lists. Events that arrive while the
list is in flight are held and replayed on top of the listed state, so no
change committed after the subscription is lost. A reconnecting client
gets no replay and must call Refresh.
*/
package client
