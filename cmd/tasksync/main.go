// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

// Command tasksync is a terminal client for a tasksync server.
//
//	export TASKSYNC_SERVER=http://localhost:5000
//	tasksync register alice --password s3cret
//	export TASKSYNC_TOKEN=$(tasksync login alice --password s3cret)
//	tasksync projects create "Launch"
//	tasksync tasks create <projectId> "Write roadmap" --due 2026-11-01
//	tasksync watch <projectId>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
