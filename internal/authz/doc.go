// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package authz enforces project ownership with a Casbin ABAC model.
//
// Decisions are never cached. Callers pass the project as just read from
// the store, so a stale or client-supplied owner can never be trusted.
package authz
