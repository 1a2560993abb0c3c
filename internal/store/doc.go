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

// Package store persists normalized event records and reads back the most
// recent ones.
//
// A backend is chosen from a connection string:
//   - "" (empty): no backend; every call fails with ErrNotConfigured
//   - memory://: an in-process store, mostly for tests and local demos
//   - sqlite://<path> or file:<path>: SQLite through modernc.org/sqlite
//   - postgres:// or postgresql://: PostgreSQL through a pgx pool
//
// SQL backends apply the embedded migrations on open. Connecting retries with
// exponential backoff, but individual writes are never retried.
//
// Ordering:
//
// Recent orders by the record timestamp, converted to a UTC instant when the
// record is appended, newest first. Records with the same instant are ordered
// by insertion, latest first. request_id carries no uniqueness constraint, so
// redelivered webhooks are stored again.
//
// Example usage:
//
//	st, err := store.Open(ctx, "sqlite://data/events.db")
//	if err != nil {
//		return err
//	}
//	defer st.Close()
//
//	id, err := st.Append(ctx, rec)
//	latest, err := st.Recent(ctx, store.DefaultRecentLimit)
package store
