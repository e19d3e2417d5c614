// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/tasksync/internal/client"
)

const (
	envServer = "TASKSYNC_SERVER"
	envToken  = "TASKSYNC_TOKEN"

	defaultServer = "http://localhost:5000"
)

// cli holds the global flags shared by every command.
type cli struct {
	server  string
	token   string
	json    bool
	timeout time.Duration

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "tasksync",
		Short: "Terminal client for the tasksync project and task tracker",
		Long: `tasksync talks to a tasksync server over its REST API and realtime channel.

The server address and token can be given as flags or through the
TASKSYNC_SERVER and TASKSYNC_TOKEN environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.server, "server", envOr(envServer, defaultServer), "server base URL")
	flags.StringVar(&c.token, "token", os.Getenv(envToken), "bearer token from login")
	flags.BoolVar(&c.json, "json", false, "print JSON instead of tables")
	flags.DurationVar(&c.timeout, "timeout", 15*time.Second, "per-request timeout")

	root.AddCommand(c.registerCmd())
	root.AddCommand(c.loginCmd())
	root.AddCommand(c.projectsCmd())
	root.AddCommand(c.tasksCmd())
	root.AddCommand(c.watchCmd())
	return root
}

// api returns a REST client carrying the configured token.
func (c *cli) api() *client.APIClient {
	api := client.NewAPIClient(c.server, nil)
	api.SetToken(c.token)
	return api
}

// authed is api for commands that need a token.
func (c *cli) authed() (*client.APIClient, error) {
	if c.token == "" {
		return nil, errors.New("not logged in: pass --token or set " + envToken)
	}
	return c.api(), nil
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
