// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package models

import "time"

// Project groups tasks under a single owner. Owner never changes.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnedBy reports whether userID owns the project.
func (p *Project) OwnedBy(userID string) bool {
	return p != nil && userID != "" && p.Owner == userID
}
