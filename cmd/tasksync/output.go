// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tasksync/internal/models"
)

func (c *cli) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

func printProjects(w io.Writer, projects []models.Project) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format(time.DateTime))
	}
	_ = tw.Flush()
}

func printTasks(w io.Writer, tasks []models.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tASSIGNEE\tDUE")
	for i := range tasks {
		fmt.Fprintln(tw, taskRow(&tasks[i]))
	}
	_ = tw.Flush()
}

func taskRow(t *models.Task) string {
	assignee, due := "-", "-"
	if t.Assignee != nil {
		assignee = t.Assignee.Username
	}
	if t.DueDate != nil {
		due = t.DueDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s", t.ID, t.Status, t.Title, assignee, due)
}
