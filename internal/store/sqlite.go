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
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mikelane/hookfeed/internal/event"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string, retry *RetryConfig) (*SQLite, error) {
	if path == ":memory:" {
		return nil, fmt.Errorf("in-memory sqlite is not supported; use memory:// instead")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := connectWithRetry(ctx, retry, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if err := MigrateUp("sqlite://" + path); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// ensureDir creates the parent directory of a plain file path.
func ensureDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sqlite directory: %w", err)
	}
	return nil
}

// Append inserts rec.
func (s *SQLite) Append(ctx context.Context, rec event.Record) (string, error) {
	r, err := newRow(rec)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	const query = `
INSERT INTO events (id, request_id, author, action, from_branch, to_branch, "timestamp", occurred_at, received_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		id, rec.RequestID, rec.Author, string(rec.Action), rec.FromBranch, rec.ToBranch, rec.Timestamp,
		r.occurredAt.UnixMicro(), time.Now().UTC().UnixMicro(),
	)
	if err != nil {
		return "", fmt.Errorf("insert event: %w: %w", ErrUnavailable, err)
	}
	return id, nil
}

// Recent returns the newest records.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]event.Record, error) {
	if limit <= 0 {
		return []event.Record{}, nil
	}

	const query = `
SELECT request_id, author, action, from_branch, to_branch, "timestamp"
FROM events
ORDER BY occurred_at DESC, seq DESC
LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	recs := []event.Record{}
	for rows.Next() {
		var (
			rec        event.Record
			action     string
			fromBranch sql.NullString
		)
		if err := rows.Scan(&rec.RequestID, &rec.Author, &action, &fromBranch, &rec.ToBranch, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Action = event.Action(action)
		if fromBranch.Valid {
			b := fromBranch.String
			rec.FromBranch = &b
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w: %w", ErrUnavailable, err)
	}
	return recs, nil
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
