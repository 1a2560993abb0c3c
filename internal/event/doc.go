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

// Package event turns GitHub webhook deliveries into normalized activity records.
//
// Three event types are understood:
//   - ping: acknowledged, nothing is recorded
//   - push: recorded as a PUSH
//   - pull_request: "opened" is recorded as a PULL_REQUEST, "closed" with
//     merged=true is recorded as a MERGE, every other action is ignored
//
// Every other event type is ignored.
//
// Field extraction never fails on missing, null or mistyped nested fields. Each field has
// an explicit default: the NotAvailable sentinel for strings and the receipt
// time for timestamps. Only payloads that are not JSON objects at all are
// rejected with ErrMalformedPayload.
//
// Example usage:
//
//	outcome, err := event.Normalize("push", body, time.Now())
//	if err != nil {
//		return err
//	}
//	if outcome.Kind == event.OutcomeRecord {
//		_, err = st.Append(ctx, outcome.Record)
//	}
package event
