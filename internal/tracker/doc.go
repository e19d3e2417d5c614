// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package tracker implements the project and task services.

Every operation takes the caller's user id as resolved by auth.Guard. The
ownership check and the write run inside one store.Update transaction, so
a mutation is authorized against the same snapshot it writes to.

Event emission:

	TaskService ─commit─▶ Emitter.Emit ─▶ events.Publisher ─▶ hub

Exactly one event is emitted per committed mutation and only after the
commit succeeds. Mutations of the same task are serialised in-process, so
events for a task id are emitted in write order. Emission never blocks the
request and its failures are not reported to the caller.

Error mapping:

	ListTasks              absent project or not owner  ErrNotFound
	CreateTask             absent project               ErrNotFound
	CreateTask             not owner                    ErrForbidden
	UpdateTask/DeleteTask  absent task                  ErrNotFound
	UpdateTask/DeleteTask  not owner                    ErrForbidden

Hiding project existence from non-owners applies to reads only; the
mutation paths report Forbidden, which existing clients rely on.
*/
package tracker
