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

// Package webhook provides the HTTP surface of hookfeed.
//
// This package implements an HTTP server that receives GitHub webhook deliveries,
// records push, pull request and merge activity, and serves the latest activity
// as display messages.
//
// Key features:
//   - Validates GitHub webhook signatures using HMAC-SHA256
//   - Handles push and pull_request events (opened, closed+merged) and pings
//   - Stores normalized records through a store.Store
//   - Serves the newest records as human-readable messages
//   - Health check, Prometheus metrics and a small UI page
//
// Routes:
//
//	POST /webhook/receiver   GitHub deliveries
//	GET  /webhook/events     latest activity messages, newest first
//	GET  /health             liveness probe
//	GET  /metrics            Prometheus metrics
//	GET  /                   activity feed page
//
// Webhook Security:
//
// When a webhook secret is configured, every delivery must include a valid
// X-Hub-Signature-256 header containing an HMAC-SHA256 signature computed with
// that secret. Without a secret only unsigned deliveries are accepted. Rejected
// deliveries receive HTTP 403.
//
// Responses:
//
// Every receiver response is a JSON object with a status of "success",
// "ignored" or "error". Pings and unhandled event types are acknowledged with
// HTTP 200; processing and storage failures return HTTP 500.
//
// Example usage:
//
//	server := webhook.NewServer(":5000", st, os.Getenv("GITHUB_WEBHOOK_SECRET"))
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
