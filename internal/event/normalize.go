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

	"github.com/google/go-github/v66/github"
	"github.com/tidwall/gjson"
)

// GitHub event type names, as sent in the X-GitHub-Event header.
const (
	EventPing        = "ping"
	EventPush        = "push"
	EventPullRequest = "pull_request"
)

const branchRefPrefix = "refs/heads/"

// ErrMalformedPayload is returned when a delivery body is not a JSON object.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Normalize classifies a webhook delivery and extracts a Record from it.
// receivedAt is used for any timestamp the payload does not carry.
func Normalize(eventType string, payload []byte, receivedAt time.Time) (Outcome, error) {
	now := receivedAt.UTC().Format(time.RFC3339Nano)

	switch eventType {
	case EventPing:
		return Outcome{Kind: OutcomePing, Message: "Pong! Webhook is active."}, nil

	case EventPush:
		obj, err := decodeObject(eventType, payload)
		if err != nil {
			return Outcome{}, err
		}
		rec := normalizePush(pushEvent(obj), obj, now)
		return Outcome{Kind: OutcomeRecord, Record: rec}, nil

	case EventPullRequest:
		obj, err := decodeObject(eventType, payload)
		if err != nil {
			return Outcome{}, err
		}
		return normalizePullRequest(pullRequestEvent(obj), obj.Get("pull_request"), now), nil

	default:
		return Outcome{
			Kind:    OutcomeIgnored,
			Message: fmt.Sprintf("Event type '%s' not handled or no useful data extracted for this action.", eventType),
		}, nil
	}
}

func normalizePush(ev *github.PushEvent, obj gjson.Result, now string) Record {
	ref := ev.GetRef()
	toBranch := ref
	if strings.HasPrefix(ref, branchRefPrefix) {
		toBranch = ref[strings.LastIndex(ref, "/")+1:]
	}

	timestamp := now
	requestID := orNotAvailable(ev.GetAfter())
	if head := ev.GetHeadCommit(); head != nil {
		timestamp = timestampAt(obj, "head_commit.timestamp", now)
		if id := head.GetID(); id != "" {
			requestID = id
		}
	}

	return Record{
		RequestID:  requestID,
		Author:     orNotAvailable(ev.GetPusher().GetName()),
		Action:     ActionPush,
		FromBranch: nil,
		ToBranch:   toBranch,
		Timestamp:  timestamp,
	}
}

func normalizePullRequest(ev *github.PullRequestEvent, pr gjson.Result, now string) Outcome {
	typed := ev.GetPullRequest()
	action := ev.GetAction()

	switch {
	case action == "opened":
		return Outcome{Kind: OutcomeRecord, Record: Record{
			RequestID:  idAt(pr, "id"),
			Author:     orNotAvailable(typed.GetUser().GetLogin()),
			Action:     ActionPullRequest,
			FromBranch: github.String(orNotAvailable(typed.GetHead().GetRef())),
			ToBranch:   orNotAvailable(typed.GetBase().GetRef()),
			Timestamp:  timestampAt(pr, "created_at", now),
		}}

	case action == "closed" && typed.GetMerged():
		author := typed.GetMergedBy().GetLogin()
		if author == "" {
			author = orNotAvailable(typed.GetUser().GetLogin())
		}
		return Outcome{Kind: OutcomeRecord, Record: Record{
			RequestID:  orNotAvailable(typed.GetMergeCommitSHA()),
			Author:     author,
			Action:     ActionMerge,
			FromBranch: github.String(orNotAvailable(typed.GetHead().GetRef())),
			ToBranch:   orNotAvailable(typed.GetBase().GetRef()),
			Timestamp:  timestampAt(pr, "merged_at", now),
		}}

	default:
		return Outcome{
			Kind:    OutcomeIgnored,
			Message: fmt.Sprintf("Pull request action %s not handled", action),
		}
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

func decodeObject(eventType string, payload []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, fmt.Errorf("%w: %s payload is not valid JSON", ErrMalformedPayload, eventType)
	}
	obj := gjson.ParseBytes(payload)
	if !obj.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: %s payload is not a JSON object", ErrMalformedPayload, eventType)
	}
	return obj, nil
}

// stringAt returns the string at path, or nil when it is missing or not a string.
func stringAt(r gjson.Result, path string) *string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return nil
	}
	s := v.Str
	return &s
}

func boolAt(r gjson.Result, path string) *bool {
	v := r.Get(path)
	if !v.IsBool() {
		return nil
	}
	b := v.Bool()
	return &b
}

func objectAt(r gjson.Result, path string) (gjson.Result, bool) {
	v := r.Get(path)
	return v, v.IsObject()
}

func userAt(r gjson.Result, path string) *github.User {
	u, ok := objectAt(r, path)
	if !ok {
		return nil
	}
	return &github.User{Login: stringAt(u, "login")}
}

func branchAt(r gjson.Result, path string) *github.PullRequestBranch {
	b, ok := objectAt(r, path)
	if !ok {
		return nil
	}
	return &github.PullRequestBranch{Ref: stringAt(b, "ref")}
}

// idAt renders a numeric or string identifier the way it was sent.
func idAt(r gjson.Result, path string) string {
	v := r.Get(path)
	switch v.Type {
	case gjson.Number:
		return v.Raw
	case gjson.String:
		return orNotAvailable(v.Str)
	default:
		return NotAvailable
	}
}

// timestampAt returns the timestamp at path. RFC 3339 values are kept as sent,
// other layouts ParseTimestamp accepts are rewritten in UTC, and anything else
// yields fallback.
func timestampAt(r gjson.Result, path, fallback string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return fallback
	}
	s := strings.TrimSpace(v.Str)
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return s
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return fallback
	}
	return t.Format(time.RFC3339Nano)
}

// pushEvent projects the fields a push record is built from.
func pushEvent(obj gjson.Result) *github.PushEvent {
	ev := &github.PushEvent{
		Ref:   stringAt(obj, "ref"),
		After: stringAt(obj, "after"),
	}
	if p, ok := objectAt(obj, "pusher"); ok {
		ev.Pusher = &github.CommitAuthor{Name: stringAt(p, "name")}
	}
	if hc, ok := objectAt(obj, "head_commit"); ok {
		ev.HeadCommit = &github.HeadCommit{ID: stringAt(hc, "id")}
	}
	return ev
}

// pullRequestEvent projects the fields pull request records are built from.
func pullRequestEvent(obj gjson.Result) *github.PullRequestEvent {
	ev := &github.PullRequestEvent{Action: stringAt(obj, "action")}
	if pr, ok := objectAt(obj, "pull_request"); ok {
		ev.PullRequest = &github.PullRequest{
			User:           userAt(pr, "user"),
			MergedBy:       userAt(pr, "merged_by"),
			Head:           branchAt(pr, "head"),
			Base:           branchAt(pr, "base"),
			Merged:         boolAt(pr, "merged"),
			MergeCommitSHA: stringAt(pr, "merge_commit_sha"),
		}
	}
	return ev
}
