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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mikelane/hookfeed/internal/event"
)

// Postgres is a Store backed by a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, uri string, retry *RetryConfig) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := connectWithRetry(ctx, retry, pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}
	if err := MigrateUp(uri); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Append inserts rec.
func (p *Postgres) Append(ctx context.Context, rec event.Record) (string, error) {
	r, err := newRow(rec)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	const query = `
INSERT INTO events (id, request_id, author, action, from_branch, to_branch, "timestamp", occurred_at, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = p.pool.Exec(ctx, query,
		id, rec.RequestID, rec.Author, string(rec.Action), rec.FromBranch, rec.ToBranch, rec.Timestamp,
		r.occurredAt, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert event: %w: %w", ErrUnavailable, err)
	}
	return id, nil
}

// Recent returns the newest records.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]event.Record, error) {
	if limit <= 0 {
		return []event.Record{}, nil
	}

	const query = `
SELECT request_id, author, action, from_branch, to_branch, "timestamp"
FROM events
ORDER BY occurred_at DESC, seq DESC
LIMIT $1`
	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	recs := []event.Record{}
	for rows.Next() {
		var (
			rec    event.Record
			action string
		)
		if err := rows.Scan(&rec.RequestID, &rec.Author, &action, &rec.FromBranch, &rec.ToBranch, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Action = event.Action(action)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w: %w", ErrUnavailable, err)
	}
	return recs, nil
}

// Ping checks that a pooled connection can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
