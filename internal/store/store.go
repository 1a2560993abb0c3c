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

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/hookfeed/internal/event"
	"github.com/mikelane/hookfeed/internal/metrics"
)

// DefaultRecentLimit is the number of records the events feed shows.
const DefaultRecentLimit = 20

var (
	// ErrUnavailable is returned when the backend cannot be reached
	ErrUnavailable = errors.New("event store unavailable")
	// ErrNotConfigured is returned by every call when no backend is configured.
	// It wraps ErrUnavailable.
	ErrNotConfigured = fmt.Errorf("%w: no backend configured", ErrUnavailable)
)

// Store persists and retrieves event records.
type Store interface {
	// Append stores rec and returns the generated record id
	Append(ctx context.Context, rec event.Record) (string, error)
	// Recent returns at most limit records, newest first
	Recent(ctx context.Context, limit int) ([]event.Record, error)
	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	// Close releases the backend's resources
	Close() error
}

// Option configures Open.
type Option func(*options)

type options struct {
	retry *RetryConfig
}

// WithRetry overrides the backoff used while connecting.
func WithRetry(cfg *RetryConfig) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// Open returns the Store for uri. An empty uri yields a store whose every call
// fails with ErrNotConfigured; it is not an error.
func Open(ctx context.Context, uri string, opts ...Option) (Store, error) {
	o := &options{retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(o)
	}
	logger := log.FromContext(ctx)

	kind, target, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	var st Store
	switch kind {
	case backendNone:
		logger.Info("No event store configured; webhook deliveries will not be stored")
		return Unconfigured{}, nil
	case backendMemory:
		st = NewMemory()
	case backendSQLite:
		st, err = openSQLite(ctx, target, o.retry)
	case backendPostgres:
		st, err = openPostgres(ctx, target, o.retry)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Opened event store", "backend", kind)
	return Instrument(st, string(kind)), nil
}

type backendKind string

const (
	backendNone     backendKind = "none"
	backendMemory   backendKind = "memory"
	backendSQLite   backendKind = "sqlite"
	backendPostgres backendKind = "postgres"
)

// parseURI maps a connection string to a backend and the target handed to its driver.
func parseURI(uri string) (backendKind, string, error) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return backendNone, "", nil
	case uri == "memory:" || strings.HasPrefix(uri, "memory://"):
		return backendMemory, "", nil
	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite connection string %q has no path", uri)
		}
		return backendSQLite, path, nil
	case strings.HasPrefix(uri, "file:"):
		return backendSQLite, uri, nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return backendPostgres, uri, nil
	default:
		scheme, _, _ := strings.Cut(uri, ":")
		return "", "", fmt.Errorf("unsupported event store scheme %q", scheme)
	}
}

// Unconfigured is the Store used when no connection string is set.
type Unconfigured struct{}

// Append always fails with ErrNotConfigured.
func (Unconfigured) Append(context.Context, event.Record) (string, error) {
	return "", ErrNotConfigured
}

// Recent always fails with ErrNotConfigured.
func (Unconfigured) Recent(context.Context, int) ([]event.Record, error) {
	return nil, ErrNotConfigured
}

// Ping always fails with ErrNotConfigured.
func (Unconfigured) Ping(context.Context) error {
	return ErrNotConfigured
}

// Close is a no-op.
func (Unconfigured) Close() error {
	return nil
}

// row is a validated record plus the columns derived from it at append time.
type row struct {
	rec        event.Record
	occurredAt time.Time
}

func newRow(rec event.Record) (row, error) {
	if err := rec.Validate(); err != nil {
		return row{}, err
	}
	occurredAt, err := rec.OccurredAt()
	if err != nil {
		return row{}, err
	}
	return row{rec: rec, occurredAt: occurredAt}, nil
}

// instrumented records metrics for every call to the wrapped Store.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps st so its calls are counted and timed under the backend label.
func Instrument(st Store, backend string) Store {
	return &instrumented{Store: st, backend: backend}
}

func (s *instrumented) Append(ctx context.Context, rec event.Record) (string, error) {
	start := time.Now()
	id, err := s.Store.Append(ctx, rec)
	s.observe("append", start, err)
	return id, err
}

func (s *instrumented) Recent(ctx context.Context, limit int) ([]event.Record, error) {
	start := time.Now()
	recs, err := s.Store.Recent(ctx, limit)
	s.observe("recent", start, err)
	return recs, err
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.StoreOperations.WithLabelValues(s.backend, op, result).Inc()
	metrics.StoreOperationDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}
