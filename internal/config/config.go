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

// Package config loads hookfeed's runtime configuration.
//
// Values are resolved in order, later sources winning: built-in defaults, an
// optional YAML file, then environment variables. A .env file can seed the
// environment without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAddr            = "HOOKFEED_ADDR"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvLegacyMongoURI  = "MONGO_URI"
	EnvWebhookSecret   = "GITHUB_WEBHOOK_SECRET"
	EnvEventsLimit     = "HOOKFEED_EVENTS_LIMIT"
	EnvShutdownTimeout = "HOOKFEED_SHUTDOWN_TIMEOUT"
)

// Config holds application configuration.
type Config struct {
	// Addr is the listen address of the HTTP server
	Addr string `yaml:"addr"`
	// DatabaseURL selects the event store; empty disables storage
	DatabaseURL string `yaml:"database_url"`
	// WebhookSecret is the shared secret GitHub signs deliveries with
	WebhookSecret string `yaml:"webhook_secret"`
	// EventsLimit is the number of records the events feed returns
	EventsLimit int `yaml:"events_limit"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:            ":5000",
		EventsLimit:     20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load resolves the configuration. path names an optional YAML file; an empty
// path skips it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the existing environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := getEnv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	} else if v := getEnv(EnvLegacyMongoURI); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvWebhookSecret); v != "" {
		c.WebhookSecret = v
	}
	if v := getEnv(EnvEventsLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvEventsLimit, v, err)
		}
		c.EventsLimit = n
	}
	if v := getEnv(EnvShutdownTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvShutdownTimeout, v, err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// Validate reports configuration values that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("listen address must not be empty")
	}
	if c.EventsLimit <= 0 {
		return fmt.Errorf("events limit must be positive, got %d", c.EventsLimit)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// HasWebhookSecret reports whether deliveries must be signed.
func (c Config) HasWebhookSecret() bool {
	return c.WebhookSecret != ""
}

// HasDatabase reports whether an event store is configured.
func (c Config) HasDatabase() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
