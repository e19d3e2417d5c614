// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package supervisor runs the server's long-lived services under suture v4.

	RootSupervisor ("tasksync")
	├── "events-layer"
	│   ├── events-publisher  (queue → watermill topic, circuit breaker)
	│   └── events-bridge     (topic → hub)
	├── "realtime-layer"
	│   └── websocket-hub
	└── "api-layer"
	    └── http-server

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog on top of the zerolog slog adapter:

	tree, _ := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddEventService(services.Named("events-publisher", publisher))
	tree.AddEventService(services.Named("events-bridge", bridge))
	tree.AddRealtimeService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err := tree.Serve(ctx)

Canceling ctx stops every layer; services that outlive ShutdownTimeout are
listed by UnstoppedServiceReport.
*/
package supervisor
