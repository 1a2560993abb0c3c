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

// Package display renders stored event records as one-line activity messages.
package display

import (
	"fmt"
	"time"

	"github.com/mikelane/hookfeed/internal/event"
)

// UnknownEvent is the message for records whose action is not recognized.
const UnknownEvent = "Unknown event"

// Message returns the human-readable summary of rec.
func Message(rec event.Record) string {
	ts := Timestamp(rec.Timestamp)
	from := fromBranch(rec.FromBranch)

	switch rec.Action {
	case event.ActionPush:
		return fmt.Sprintf("%s pushed to %s on %s", rec.Author, rec.ToBranch, ts)
	case event.ActionPullRequest:
		return fmt.Sprintf("%s submitted a pull request from %s to %s on %s", rec.Author, from, rec.ToBranch, ts)
	case event.ActionMerge:
		return fmt.Sprintf("%s merged branch %s to %s on %s", rec.Author, from, rec.ToBranch, ts)
	default:
		return UnknownEvent
	}
}

// Timestamp renders an ISO-8601 timestamp as "3rd June 2024 - 2:05 PM UTC".
// An empty value renders as event.NotAvailable; a value that cannot be parsed
// is returned unchanged.
func Timestamp(raw string) string {
	if raw == "" {
		return event.NotAvailable
	}
	t, err := event.ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return Instant(t)
}

// Instant renders t in UTC using the same layout as Timestamp.
func Instant(t time.Time) string {
	t = t.UTC()
	day := t.Day()
	return fmt.Sprintf("%d%s %s", day, ordinalSuffix(day), t.Format("January 2006 - 3:04 PM UTC"))
}

func ordinalSuffix(day int) string {
	switch {
	case day%10 == 1 && day != 11:
		return "st"
	case day%10 == 2 && day != 12:
		return "nd"
	case day%10 == 3 && day != 13:
		return "rd"
	default:
		return "th"
	}
}

func fromBranch(b *string) string {
	if b == nil {
		return event.NotAvailable
	}
	return *b
}
