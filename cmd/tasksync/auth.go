// Tasksync - Real-time Project and Task Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tasksync

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const envPassword = "TASKSYNC_PASSWORD"

func passwordFlag(cmd *cobra.Command, password *string) {
	cmd.Flags().StringVarP(password, "password", "p", "", "account password (default $"+envPassword+")")
}

func resolvePassword(password string) (string, error) {
	if password == "" {
		password = os.Getenv(envPassword)
	}
	if password == "" {
		return "", errors.New("password required: pass --password or set " + envPassword)
	}
	return password, nil
}

func (c *cli) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			user, err := c.api().Register(ctx, args[0], pw)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(user)
			}
			fmt.Fprintf(c.out, "Registered %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and print a bearer token",
		Long: `Log in and print a bearer token on stdout, for example:

  export TASKSYNC_TOKEN=$(tasksync login alice -p s3cret)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			api := c.api()
			user, err := api.Login(ctx, args[0], pw)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(map[string]interface{}{"token": api.Token(), "user": user})
			}
			fmt.Fprintln(c.out, api.Token())
			return nil
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}
