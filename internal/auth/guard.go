// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// LegacyTokenHeader is the header existing clients send the token in.
const LegacyTokenHeader = "x-auth-token"

// Messages for handshake and request failures.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Token is not valid"

	MsgHandshakeNoToken      = "Authentication error: No token provided"
	MsgHandshakeInvalidToken = "Authentication error: Invalid token"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	UserID   string
	Username string
}

type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller returns ctx carrying c.
func ContextWithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}

// CallerFromContext returns the caller set by Guard.Middleware, or nil.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerContextKey).(*Caller)
	return c
}

// CallerID returns the caller's user id, or "".
func CallerID(ctx context.Context) string {
	if c := CallerFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// Guard resolves bearer credentials to callers.
type Guard struct {
	jwt *JWTManager
}

// NewGuard creates a Guard backed by m.
func NewGuard(m *JWTManager) *Guard {
	return &Guard{jwt: m}
}

// ResolveCaller verifies credential. Absent, malformed, badly signed and
// expired credentials all fail with tracker.ErrUnauthenticated.
func (g *Guard) ResolveCaller(credential string) (*Caller, error) {
	return g.resolve(credential, MsgNoToken, MsgInvalidToken)
}

// ResolveHandshake is ResolveCaller for realtime handshakes, which report
// failures with their own messages.
func (g *Guard) ResolveHandshake(credential string) (*Caller, error) {
	return g.resolve(credential, MsgHandshakeNoToken, MsgHandshakeInvalidToken)
}

func (g *Guard) resolve(credential, missing, invalid string) (*Caller, error) {
	if credential == "" {
		return nil, &tracker.Error{Kind: tracker.ErrUnauthenticated, Msg: missing}
	}
	claims, err := g.jwt.ValidateToken(credential)
	if err != nil {
		return nil, &tracker.Error{Kind: tracker.ErrUnauthenticated, Msg: invalid, Err: err}
	}
	return &Caller{UserID: claims.UserID, Username: claims.Username}, nil
}

// CredentialFromRequest extracts the token from the Authorization or
// x-auth-token header.
func CredentialFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
}

// CredentialFromHandshake additionally accepts the token query parameter.
func CredentialFromHandshake(r *http.Request) string {
	if t := CredentialFromRequest(r); t != "" {
		return t
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// ErrorResponder writes err to w. The API layer supplies its JSON writer.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Middleware rejects requests without a valid credential and places the
// Caller in the request context.
func (g *Guard) Middleware(onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := g.ResolveCaller(CredentialFromRequest(r))
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
				onError(w, r, err)
				return
			}
			ctx := ContextWithCaller(r.Context(), caller)
			ctx = logging.ContextWithUserID(ctx, caller.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
