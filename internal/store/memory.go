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
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mikelane/hookfeed/internal/event"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries []memoryEntry
	seq     int64
}

type memoryEntry struct {
	row
	id  string
	seq int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores a copy of rec.
func (m *Memory) Append(_ context.Context, rec event.Record) (string, error) {
	r, err := newRow(cloneRecord(rec))
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := uuid.NewString()
	m.entries = append(m.entries, memoryEntry{row: r, id: id, seq: m.seq})
	return id, nil
}

// Recent returns copies of the newest records.
func (m *Memory) Recent(_ context.Context, limit int) ([]event.Record, error) {
	if limit <= 0 {
		return []event.Record{}, nil
	}

	m.mu.RLock()
	sorted := make([]memoryEntry, len(m.entries))
	copy(sorted, m.entries)
	m.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].occurredAt.Equal(sorted[j].occurredAt) {
			return sorted[i].occurredAt.After(sorted[j].occurredAt)
		}
		return sorted[i].seq > sorted[j].seq
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	recs := make([]event.Record, 0, len(sorted))
	for _, e := range sorted {
		recs = append(recs, cloneRecord(e.rec))
	}
	return recs, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Close is a no-op; the records stay readable.
func (m *Memory) Close() error {
	return nil
}

func cloneRecord(rec event.Record) event.Record {
	if rec.FromBranch != nil {
		b := *rec.FromBranch
		rec.FromBranch = &b
	}
	return rec
}
