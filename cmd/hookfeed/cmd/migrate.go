// Copyright 2025 The Hookfeed Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikelane/hookfeed/internal/store"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the event store schema",
		Long: `Apply or roll back the embedded schema migrations of a SQL event store.

Only sqlite:// and postgres:// stores carry a schema. serve applies pending
migrations on startup, so these commands are mostly useful for rollbacks and
inspection.`,
	}

	databaseURL := func() (string, error) {
		cfg, err := opts.loadConfig()
		if err != nil {
			return "", fmt.Errorf("config error: %w", err)
		}
		if !cfg.HasDatabase() {
			return "", errors.New("no event store configured; set DATABASE_URL or --database-url")
		}
		return cfg.DatabaseURL, nil
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := databaseURL()
			if err != nil {
				return err
			}
			if err := store.MigrateUp(uri); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}
			uri, err := databaseURL()
			if err != nil {
				return err
			}
			if err := store.MigrateDown(uri, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, err := databaseURL()
			if err != nil {
				return err
			}
			version, dirty, err := store.MigrationVersion(uri)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %d\n", version)
			if dirty {
				fmt.Fprintln(out, "dirty: true")
			}
			return nil
		},
	})

	return migrateCmd
}
