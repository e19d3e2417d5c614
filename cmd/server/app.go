// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tomtom215/tasksync/internal/api"
	"github.com/tomtom215/tasksync/internal/auth"
	"github.com/tomtom215/tasksync/internal/authz"
	"github.com/tomtom215/tasksync/internal/config"
	"github.com/tomtom215/tasksync/internal/events"
	"github.com/tomtom215/tasksync/internal/logging"
	"github.com/tomtom215/tasksync/internal/store"
	"github.com/tomtom215/tasksync/internal/store/badgerstore"
	"github.com/tomtom215/tasksync/internal/store/mongostore"
	"github.com/tomtom215/tasksync/internal/supervisor"
	"github.com/tomtom215/tasksync/internal/supervisor/services"
	"github.com/tomtom215/tasksync/internal/tracker"
	ws "github.com/tomtom215/tasksync/internal/websocket"
)

// app holds the wired server.
type app struct {
	cfg     *config.Config
	store   store.Store
	bus     *events.Bus
	tree    *supervisor.SupervisorTree
	handler http.Handler
	bridge  *events.Bridge
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: st}

	if err := a.wire(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	ownership, err := authz.NewOwnership()
	if err != nil {
		return fmt.Errorf("create ownership enforcer: %w", err)
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("create jwt manager: %w", err)
	}
	accounts, err := auth.NewAccounts(a.store, jwtManager, cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("create accounts: %w", err)
	}

	a.bus, err = events.NewBus(cfg.Events, logging.NewWatermillLogger())
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	publisher := events.NewPublisher(a.bus.Publisher, cfg.Events)

	projects := tracker.NewProjectService(a.store, ownership, cfg.Store.OpTimeout)
	tasks := tracker.NewTaskService(a.store, ownership, publisher, cfg.Store.OpTimeout)

	hub := ws.NewHub(projects, cfg.Realtime.SendBuffer)
	a.bridge = events.NewBridge(a.bus.Subscriber, cfg.Events.Topic, hub)

	guard := auth.NewGuard(jwtManager)
	handler := api.NewHandler(api.HandlerDeps{
		Accounts: accounts,
		Projects: projects,
		Tasks:    tasks,
		Store:    a.store,
		Breaker:  publisher,
		Realtime: hub,
	})
	realtime := ws.NewHandler(hub, guard, cfg.Realtime, api.ErrorResponder())
	a.handler = api.NewRouter(cfg, handler, guard, realtime).SetupChi()

	a.tree, err = supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	a.tree.AddEventService(services.Named("events-publisher", publisher))
	a.tree.AddEventService(services.Named("events-bridge", a.bridge))
	a.tree.AddRealtimeService(hub)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	a.tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")
	return nil
}

// serve runs the supervisor tree until ctx is canceled.
func (a *app) serve(ctx context.Context) error {
	err := a.tree.Serve(ctx)

	unstopped, _ := a.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}
}

// openStore opens the configured document store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.StoreBackendBadger, "":
		st, err := badgerstore.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger store at %s: %w", cfg.Path, err)
		}
		logging.Info().Str("path", cfg.Path).Msg("BadgerDB store opened")
		return st, nil
	case config.StoreBackendMemory:
		st, err := badgerstore.OpenInMemory()
		if err != nil {
			return nil, fmt.Errorf("open in-memory store: %w", err)
		}
		logging.Warn().Msg("Using in-memory store; data is lost on restart")
		return st, nil
	case config.StoreBackendMongo:
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		logging.Info().Str("database", cfg.MongoDatabase).Msg("MongoDB store opened")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
