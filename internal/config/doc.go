// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

/*
Package config loads Tasksync configuration with Koanf v2.

Sources are layered with increasing priority:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/tasksync/config.yaml)
 3. Environment variables (explicit mapping in envTransformFunc)

Example config.yaml:

	server:
	  port: 5000
	store:
	  backend: badger
	  path: /data/tasksync
	security:
	  jwt_secret: change-me-to-something-at-least-32-chars
	events:
	  backend: memory

Unmapped environment variables are ignored so that unrelated process
environment never leaks into configuration.
*/
package config
