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
	"context"
	"fmt"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/mikelane/hookfeed/internal/config"
	"github.com/mikelane/hookfeed/internal/store"
	"github.com/mikelane/hookfeed/internal/webhook"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook receiver",
		Long: `Start the HTTP server and begin accepting GitHub webhook deliveries.

The server will:
- Load configuration from the environment (or --config file if provided)
- Connect to the event store and apply pending migrations
- Serve /webhook/receiver, /webhook/events, /health and /metrics
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Keep events in memory
  hookfeed serve --database-url memory://

  # Persist to SQLite with debug logging
  hookfeed serve --database-url sqlite://data/hookfeed.db --zap-log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return runServer(ctrl.SetupSignalHandler(), cfg)
		},
	}
}

// runServer serves until ctx is cancelled.
func runServer(ctx context.Context, cfg config.Config) error {
	logger := ctrl.Log.WithName("serve")
	ctx = ctrl.LoggerInto(ctx, logger)

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error(err, "Failed to close event store")
		}
	}()

	server := webhook.NewServer(cfg.Addr, st, cfg.WebhookSecret,
		webhook.WithEventsLimit(cfg.EventsLimit),
		webhook.WithShutdownTimeout(cfg.ShutdownTimeout),
		webhook.WithLogger(ctrl.Log.WithName("webhook")),
	)
	return server.Start(ctx)
}
