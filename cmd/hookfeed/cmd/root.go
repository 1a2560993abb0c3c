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

// Package cmd implements the hookfeed command line.
package cmd

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/mikelane/hookfeed/internal/config"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	envFiles    []string
	addr        string
	databaseURL string
	zap         zap.Options
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	serveCmd := newServeCommand(opts)
	root := &cobra.Command{
		Use:   "hookfeed",
		Short: "hookfeed - GitHub webhook receiver and activity feed",
		Long: `hookfeed receives GitHub webhook deliveries for push and pull_request
events, verifies their HMAC-SHA256 signature, stores a normalized record of each
one and serves the most recent activity as human-readable messages.

Configuration is read from an optional YAML file, a .env file and the
environment (DATABASE_URL, GITHUB_WEBHOOK_SECRET, HOOKFEED_ADDR, ...).
Flags override all of them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts.zap)))
		},
		// Run serve when no subcommand is given
		RunE: serveCmd.RunE,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file (optional)")
	flags.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, ".env files to load before reading the environment")
	flags.StringVar(&opts.addr, "addr", "", "listen address (default :5000)")
	flags.StringVar(&opts.databaseURL, "database-url", "", "event store connection string (memory://, sqlite://, postgres://)")

	goFlags := goflag.NewFlagSet("zap", goflag.ContinueOnError)
	opts.zap.BindFlags(goFlags)
	flags.AddGoFlagSet(goFlags)

	root.AddCommand(serveCmd)
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// loadConfig resolves the configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.addr != "" {
		cfg.Addr = o.addr
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	return cfg, nil
}
