// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/models"
	"github.com/tomtom215/tasksync/internal/store"
	"github.com/tomtom215/tasksync/internal/tracker"
)

// ErrUsernameTaken is returned by Register for an existing username.
var ErrUsernameTaken = errors.New("username already exists")

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong
// password; the two are indistinguishable to the caller.
var ErrInvalidCredentials = &tracker.Error{Kind: tracker.ErrUnauthenticated, Msg: "Invalid credentials"}

// Accounts registers users and exchanges passwords for tokens.
type Accounts struct {
	store      store.Store
	jwt        *JWTManager
	bcryptCost int

	// dummyHash is compared against when the user does not exist so that
	// login latency does not reveal which usernames are registered.
	dummyHash string
}

// NewAccounts creates an account service.
func NewAccounts(s store.Store, jwt *JWTManager, bcryptCost int) (*Accounts, error) {
	dummy, err := HashPassword("tasksync-dummy-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Accounts{store: s, jwt: jwt, bcryptCost: bcryptCost, dummyHash: dummy}, nil
}

// Register creates a user. Username and password must already have passed
// request validation; only emptiness is rechecked here.
func (a *Accounts) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, tracker.Errorf(tracker.ErrInvalidArgument, "username and password are required")
	}
	if len(password) > MaxPasswordBytes {
		return nil, tracker.Errorf(tracker.ErrInvalidArgument, "password must be at most %d bytes", MaxPasswordBytes)
	}

	hash, err := HashPassword(password, a.bcryptCost)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	user := &models.User{
		ID:           id.String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = a.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateUser(user)
	})
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("User registration failed")
		return nil, &tracker.Error{Kind: tracker.ErrStoreUnavailable, Msg: "Server error", Err: err}
	}

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Login verifies the password and returns a signed token.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user *models.User
	err := a.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByUsername(strings.TrimSpace(username))
		return err
	})

	hash := a.dummyHash
	switch {
	case err == nil:
		hash = user.PasswordHash
	case errors.Is(err, store.ErrNotFound):
	default:
		return "", nil, &tracker.Error{Kind: tracker.ErrStoreUnavailable, Msg: "Server error", Err: err}
	}

	ok, cmpErr := CheckPassword(hash, password)
	if err != nil || cmpErr != nil || !ok {
		logging.Ctx(ctx).Warn().Str("username", username).Msg("Login failed")
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.jwt.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User logged in")
	return token, user, nil
}
