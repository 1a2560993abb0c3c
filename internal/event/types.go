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

package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotAvailable is stored in place of any string field the payload did not carry.
// Consumers of the events endpoint rely on this exact value.
const NotAvailable = "N/A"

// Action is the normalized kind of repository activity.
type Action string

const (
	// ActionPush is a branch push
	ActionPush Action = "PUSH"
	// ActionPullRequest is a newly opened pull request
	ActionPullRequest Action = "PULL_REQUEST"
	// ActionMerge is a merged pull request
	ActionMerge Action = "MERGE"
)

// Valid reports whether a is one of the recorded actions.
func (a Action) Valid() bool {
	switch a {
	case ActionPush, ActionPullRequest, ActionMerge:
		return true
	}
	return false
}

// Record is the uniform shape every recorded event is mapped into.
// Records are created once at receipt time and never modified.
type Record struct {
	RequestID  string  `json:"request_id"`
	Author     string  `json:"author"`
	Action     Action  `json:"action"`
	FromBranch *string `json:"from_branch"`
	ToBranch   string  `json:"to_branch"`
	Timestamp  string  `json:"timestamp"`
}

// ErrInvalidRecord is returned by Record.Validate.
var ErrInvalidRecord = errors.New("invalid event record")

// Validate checks the record invariants: a known action, a source branch
// present exactly when the action is not a push, and a parseable timestamp.
func (r Record) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRecord, r.Action)
	}
	if r.Action == ActionPush && r.FromBranch != nil {
		return fmt.Errorf("%w: push records carry no source branch", ErrInvalidRecord)
	}
	if r.Action != ActionPush && r.FromBranch == nil {
		return fmt.Errorf("%w: %s records require a source branch", ErrInvalidRecord, r.Action)
	}
	if _, err := ParseTimestamp(r.Timestamp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// OccurredAt returns the record timestamp as a UTC instant.
func (r Record) OccurredAt() (time.Time, error) {
	return ParseTimestamp(r.Timestamp)
}

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp and normalizes it to UTC.
// A trailing "Z", an explicit offset, or no zone at all (read as UTC) are accepted.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// OutcomeKind classifies the result of normalizing a delivery.
type OutcomeKind int

const (
	// OutcomeRecord means a record was extracted and should be stored
	OutcomeRecord OutcomeKind = iota
	// OutcomePing means the delivery was a ping; nothing is stored
	OutcomePing
	// OutcomeIgnored means the event or action is not recorded
	OutcomeIgnored
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRecord:
		return "record"
	case OutcomePing:
		return "ping"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Outcome is the result of Normalize.
type Outcome struct {
	Kind OutcomeKind
	// Record is set when Kind is OutcomeRecord
	Record Record
	// Message is a human-readable explanation for pings and ignored deliveries
	Message string
}
