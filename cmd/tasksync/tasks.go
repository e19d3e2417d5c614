// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tomtom215/tasksync/internal/client"
	"github.com/tomtom215/tasksync/internal/models"
)

// taskFlags are the editable task fields shared by create and update.
type taskFlags struct {
	title       string
	description string
	status      string
	assignee    string
	due         string
}

func (f *taskFlags) register(fs *pflag.FlagSet, withTitle bool) {
	if withTitle {
		fs.StringVar(&f.title, "title", "", "task title")
	}
	fs.StringVarP(&f.description, "description", "d", "", "task description")
	fs.StringVarP(&f.status, "status", "s", "", "todo, in-progress or done")
	fs.StringVarP(&f.assignee, "assignee", "a", "", "assignee user id (empty to unassign)")
	fs.StringVar(&f.due, "due", "", "due date, YYYY-MM-DD or RFC3339 (empty to clear)")
}

// changes builds a partial update from the flags the user actually set.
// An explicitly empty assignee or due date clears the field.
func (f *taskFlags) changes(fs *pflag.FlagSet) (client.TaskChanges, error) {
	var changes client.TaskChanges
	if fs.Changed("title") {
		changes.Title = models.Some(f.title)
	}
	if fs.Changed("description") {
		changes.Description = models.Some(f.description)
	}
	if fs.Changed("status") {
		changes.Status = models.Some(models.Status(f.status))
	}
	if fs.Changed("assignee") {
		if f.assignee == "" {
			changes.AssigneeID = models.Null[string]()
		} else {
			changes.AssigneeID = models.Some(f.assignee)
		}
	}
	if fs.Changed("due") {
		due, err := models.ParseDueDate(f.due)
		if err != nil {
			return changes, fmt.Errorf("--due: %w", err)
		}
		if due == nil {
			changes.DueDate = models.Null[time.Time]()
		} else {
			changes.DueDate = models.Some(*due)
		}
	}
	return changes, nil
}

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, create, update and delete tasks",
	}
	cmd.AddCommand(c.tasksListCmd(), c.tasksCreateCmd(), c.tasksUpdateCmd(), c.tasksDeleteCmd())
	return cmd
}

func (c *cli) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <projectId>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			tasks, err := api.ListTasks(ctx, args[0])
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(tasks)
			}
			printTasks(c.out, tasks)
			return nil
		},
	}
}

func (c *cli) tasksCreateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "create <projectId> <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			t, err := api.CreateTask(ctx, client.NewTask{
				ProjectID:   args[0],
				Title:       args[1],
				Description: f.description,
				Status:      f.status,
				Assignee:    f.assignee,
				DueDate:     f.due,
			})
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(t)
			}
			fmt.Fprintln(c.out, t.ID)
			return nil
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func (c *cli) tasksUpdateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <taskId>",
		Short: "Change some fields of a task",
		Long: `Change some fields of a task. Only the flags you pass are sent;
--assignee "" and --due "" clear those fields.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := f.changes(cmd.Flags())
			if err != nil {
				return err
			}
			if changes.Empty() {
				return errors.New("nothing to update: pass at least one field flag")
			}
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			t, err := api.UpdateTask(ctx, args[0], changes)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(t)
			}
			printTasks(c.out, []models.Task{*t})
			return nil
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func (c *cli) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <taskId>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.authed()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := api.DeleteTask(ctx, args[0]); err != nil {
				return err
			}
			if !c.json {
				fmt.Fprintln(c.out, "Task removed")
				return nil
			}
			return c.printJSON(map[string]string{"msg": "Task removed"})
		},
	}
}
