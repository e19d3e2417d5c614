// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Package main is the tasksync server.
//
// The server initializes components in this order:
//
//  1. Configuration: defaults, then config.yaml, then environment (Koanf v2)
//  2. Logging: zerolog, with supervisor events routed through slog
//  3. Document store: BadgerDB (durable or in-memory) or MongoDB
//  4. Services: accounts, ownership enforcer, project and task services
//  5. Event bus: in-process watermill channel or NATS
//  6. Realtime hub and HTTP router
//  7. Supervisor tree: event publisher, bridge, hub and HTTP server
//
// # Configuration
//
// The short deployment variables are honoured:
//
//	PORT=5000
//	JWT_SECRET=$(openssl rand -base64 32)
//	MONGODB_URI=mongodb://mongo:27017/?replicaSet=rs0
//
// Other settings use flat names mapped in internal/config, for example
// STORE_BACKEND=mongo, EVENTS_BACKEND=nats, NATS_URL=nats://nats:4222.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
// server.shutdown_timeout, the hub closes every realtime session, and the
// event publisher flushes its queue before the store is closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store", cfg.Store.Backend).
		Str("events", cfg.Events.Backend).
		Str("environment", cfg.Server.Environment).
		Msg("Starting tasksync")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Server stopped gracefully")
}

// run builds the server and serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return a.serve(ctx)
}
