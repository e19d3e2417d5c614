// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package models

import "time"

// User is an account. PasswordHash is never serialised to API clients.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Ref returns the public projection of the user.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username}
}

// UserRef is the resolved form of a user reference, as embedded in tasks.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
