// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/tasksync/internal/client"
	"github.com/tomtom215/tasksync/internal/models"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <projectId>",
		Short: "Print a project's tasks, then every change as it happens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			return c.watch(cmd.Context(), api, args[0])
		},
	}
}

// watch runs until ctx is canceled or the connection drops.
func (c *cli) watch(ctx context.Context, api *client.APIClient, projectID string) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sess, err := client.Dial(dialCtx, api.RealtimeURL(), api.Token())
	if err != nil {
		return err
	}
	defer sess.Close()

	printer := &eventPrinter{w: c.out, json: c.json}
	view, err := client.OpenProjectView(dialCtx, api, sess, projectID, client.ViewOptions{
		OnEvent: printer.print,
	})
	if err != nil {
		return err
	}
	defer view.Close()

	if c.json {
		if err := c.printJSON(view.Tasks()); err != nil {
			return err
		}
	} else {
		printTasks(c.out, view.Tasks())
		fmt.Fprintln(c.errOut, "Watching for changes, Ctrl-C to stop")
	}

	select {
	case <-ctx.Done():
		return nil
	case <-sess.Done():
		if err := sess.Err(); err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}
		return errors.New("connection closed by server")
	}
}

type eventPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *eventPrinter) print(msg models.Message, changed bool) {
	if !changed {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		data, err := json.Marshal(msg)
		if err == nil {
			fmt.Fprintln(p.w, string(data))
		}
		return
	}

	switch models.EventType(msg.Type) {
	case models.EventTaskDelete:
		var id string
		_ = json.Unmarshal(msg.Data, &id)
		fmt.Fprintf(p.w, "%s\t%s\n", msg.Type, id)
	default:
		var t models.Task
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			return
		}
		fmt.Fprintf(p.w, "%s\t%s\n", msg.Type, taskRow(&t))
	}
}
