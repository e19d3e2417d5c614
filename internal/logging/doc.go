// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package logging provides the zerolog-based global logger used across Tasksync.

All packages log through the helpers in this package rather than holding their
own logger instances:

	logging.Info().Str("project_id", id).Msg("project created")
	logging.Ctx(ctx).Warn().Str("user_id", uid).Msg("ownership check failed")

Request handlers get request_id and correlation_id fields for free through
Ctx, populated by the API request ID middleware.

Two adapters bridge third-party logging interfaces onto zerolog:

  - SlogHandler: log/slog handler, used by sutureslog for supervisor events
  - WatermillLogger: watermill.LoggerAdapter, used by the event bus

Environment Variables (read by internal/config):

  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)
  - LOG_CALLER: include caller file:line (default: false)
*/
package logging
