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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAddr, EnvDatabaseURL, EnvLegacyMongoURI, EnvWebhookSecret, EnvEventsLimit, EnvShutdownTimeout,
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, expected defaults %+v", cfg, Default())
	}
	if cfg.HasWebhookSecret() || cfg.HasDatabase() {
		t.Error("defaults report a secret or database as configured")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "hookfeed.yaml", `
addr: ":8080"
database_url: "sqlite://from-file.db"
webhook_secret: "file-secret"
events_limit: 50
shutdown_timeout: 30s
`)
	t.Setenv(EnvDatabaseURL, "postgres://localhost/hookfeed")
	t.Setenv(EnvEventsLimit, "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, expected value from file", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://localhost/hookfeed" {
		t.Errorf("DatabaseURL = %q, expected value from environment", cfg.DatabaseURL)
	}
	if cfg.WebhookSecret != "file-secret" {
		t.Errorf("WebhookSecret = %q, expected value from file", cfg.WebhookSecret)
	}
	if cfg.EventsLimit != 5 {
		t.Errorf("EventsLimit = %d, expected 5", cfg.EventsLimit)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, expected 30s", cfg.ShutdownTimeout)
	}
}

func TestLoad_LegacyMongoURI(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLegacyMongoURI, "sqlite://legacy.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DatabaseURL != "sqlite://legacy.db" {
		t.Errorf("DatabaseURL = %q, expected legacy value", cfg.DatabaseURL)
	}

	t.Setenv(EnvDatabaseURL, "memory://")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DatabaseURL != "memory://" {
		t.Errorf("DatabaseURL = %q, expected DATABASE_URL to win", cfg.DatabaseURL)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{
			name:    "bad events limit",
			env:     map[string]string{EnvEventsLimit: "many"},
			wantErr: "invalid HOOKFEED_EVENTS_LIMIT",
		},
		{
			name:    "zero events limit",
			env:     map[string]string{EnvEventsLimit: "0"},
			wantErr: "events limit must be positive",
		},
		{
			name:    "bad shutdown timeout",
			env:     map[string]string{EnvShutdownTimeout: "soon"},
			wantErr: "invalid HOOKFEED_SHUTDOWN_TIMEOUT",
		},
		{
			name:    "malformed file",
			file:    "addr: [unclosed",
			wantErr: "parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, "bad.yaml", tt.file)
			}

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() with a missing file returned no error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "GITHUB_WEBHOOK_SECRET=from-dotenv\nHOOKFEED_ADDR=:9000\n")
	t.Setenv(EnvAddr, ":7000")
	// godotenv only fills variables that are absent, not merely empty
	os.Unsetenv(EnvWebhookSecret) //nolint:errcheck

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() returned error: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.WebhookSecret != "from-dotenv" {
		t.Errorf("WebhookSecret = %q, expected value from .env", cfg.WebhookSecret)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("Addr = %q, expected the existing environment to win over .env", cfg.Addr)
	}
}
