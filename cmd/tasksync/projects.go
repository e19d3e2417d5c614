// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create your projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects you own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			projects, err := api.ListProjects(ctx)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(projects)
			}
			printProjects(c.out, projects)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			p, err := api.CreateProject(ctx, args[0])
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(p)
			}
			fmt.Fprintln(c.out, p.ID)
			return nil
		},
	})
	return cmd
}
