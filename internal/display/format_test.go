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

package display

import (
	"testing"
	"time"

	"github.com/mikelane/hookfeed/internal/event"
)

func strPtr(s string) *string { return &s }

func TestTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2024-06-03T14:05:00Z", "3rd June 2024 - 2:05 PM UTC"},
		{"2024-06-03T16:05:00+02:00", "3rd June 2024 - 2:05 PM UTC"},
		{"2024-06-03T14:05:00", "3rd June 2024 - 2:05 PM UTC"},
		{"2024-01-01T00:00:00Z", "1st January 2024 - 12:00 AM UTC"},
		{"2024-01-02T12:30:00Z", "2nd January 2024 - 12:30 PM UTC"},
		{"2024-01-11T09:07:00Z", "11th January 2024 - 9:07 AM UTC"},
		{"2024-01-12T09:07:00Z", "12th January 2024 - 9:07 AM UTC"},
		{"2024-01-13T09:07:00Z", "13th January 2024 - 9:07 AM UTC"},
		{"2024-01-21T23:59:00Z", "21st January 2024 - 11:59 PM UTC"},
		{"2024-01-22T01:00:00Z", "22nd January 2024 - 1:00 AM UTC"},
		{"2024-01-23T01:00:00Z", "23rd January 2024 - 1:00 AM UTC"},
		{"2024-01-24T01:00:00Z", "24th January 2024 - 1:00 AM UTC"},
		{"2024-01-31T01:00:00Z", "31st January 2024 - 1:00 AM UTC"},
		{"2024-12-31T23:30:00-01:00", "1st January 2025 - 12:30 AM UTC"},
		{"", "N/A"},
		{"not-a-timestamp", "not-a-timestamp"},
		{"2024-13-45T99:00:00Z", "2024-13-45T99:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Timestamp(tt.input); got != tt.expected {
				t.Errorf("Timestamp(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInstant(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	in := time.Date(2024, time.June, 3, 9, 5, 0, 0, loc)

	if got := Instant(in); got != "3rd June 2024 - 2:05 PM UTC" {
		t.Errorf("Instant(%v) = %q", in, got)
	}
}

func TestMessage(t *testing.T) {
	ts := "2024-06-03T14:05:00Z"
	tests := []struct {
		name     string
		rec      event.Record
		expected string
	}{
		{
			name:     "push",
			rec:      event.Record{Author: "octocat", Action: event.ActionPush, ToBranch: "main", Timestamp: ts},
			expected: "octocat pushed to main on 3rd June 2024 - 2:05 PM UTC",
		},
		{
			name: "pull request",
			rec: event.Record{
				Author: "octocat", Action: event.ActionPullRequest,
				FromBranch: strPtr("feature"), ToBranch: "main", Timestamp: ts,
			},
			expected: "octocat submitted a pull request from feature to main on 3rd June 2024 - 2:05 PM UTC",
		},
		{
			name: "merge",
			rec: event.Record{
				Author: "hubot", Action: event.ActionMerge,
				FromBranch: strPtr("feature"), ToBranch: "main", Timestamp: ts,
			},
			expected: "hubot merged branch feature to main on 3rd June 2024 - 2:05 PM UTC",
		},
		{
			name:     "missing timestamp",
			rec:      event.Record{Author: "octocat", Action: event.ActionPush, ToBranch: "main"},
			expected: "octocat pushed to main on N/A",
		},
		{
			name:     "unknown action",
			rec:      event.Record{Author: "octocat", Action: "DELETE", ToBranch: "main", Timestamp: ts},
			expected: "Unknown event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.rec); got != tt.expected {
				t.Errorf("Message() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
