// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package auth is the identity layer: it registers accounts, issues bearer
tokens and resolves an inbound credential to a caller.

Key Components:

  - JWTManager: HS256 token issuance and validation (golang-jwt/jwt/v5)
  - Accounts: registration and login with bcrypt password hashes
  - Guard: resolveCaller for REST requests and realtime handshakes
  - Guard.Middleware: chi-compatible middleware placing the Caller in context

Credentials are accepted from, in order:

 1. Authorization: Bearer <token>
 2. x-auth-token: <token> (legacy header used by existing clients)
 3. ?token=<token> (realtime handshakes only, browsers cannot set headers)

Every resolution failure is reported as tracker.ErrUnauthenticated.
Ownership rules live in package authz, not here.
*/
package auth
