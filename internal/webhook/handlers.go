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

package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/hookfeed/internal/display"
	"github.com/mikelane/hookfeed/internal/event"
	"github.com/mikelane/hookfeed/internal/metrics"
	"github.com/mikelane/hookfeed/internal/store"
)

// GitHub caps webhook payloads at 25 MB
const maxPayloadBytes = 25 << 20

const signatureHeader = "X-Hub-Signature-256"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook receiver is healthy!")) //nolint:errcheck,gosec
}

// handleWebhook handles GitHub webhook deliveries
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	eventType := github.WebHookType(r)
	label := eventLabel(eventType)
	logger := log.FromContext(r.Context()).WithValues("event", eventType, "delivery", github.DeliveryID(r))

	// Read body
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		logger.Error(err, "Failed to read request body")
		metrics.WebhookDeliveries.WithLabelValues(label, "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, StatusResponse{Status: StatusError, Message: "Failed to read request body"})
		return
	}
	defer r.Body.Close()

	// Validate signature
	signature := r.Header.Get(signatureHeader)
	if !ValidateSignature(body, signature, s.webhookSecret) {
		switch {
		case s.webhookSecret == "":
			logger.Info("Signed delivery received but GITHUB_WEBHOOK_SECRET is not configured")
		case signature == "":
			logger.Info("No X-Hub-Signature-256 header received, but secret is configured")
		default:
			logger.Info("Invalid webhook signature")
		}
		metrics.WebhookDeliveries.WithLabelValues(label, "unauthorized").Inc()
		writeJSON(w, http.StatusForbidden, StatusResponse{
			Status:  StatusError,
			Message: "Request signature mismatch or configuration error.",
		})
		return
	}

	payload, err := extractPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		logger.Error(err, "Failed to decode form-encoded payload")
		metrics.WebhookDeliveries.WithLabelValues(label, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: StatusError, Message: processingFailure(eventType)})
		return
	}

	outcome, err := event.Normalize(eventType, payload, s.now())
	if err != nil {
		logger.Error(err, "Failed to process webhook event")
		metrics.WebhookDeliveries.WithLabelValues(label, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: StatusError, Message: processingFailure(eventType)})
		return
	}

	switch outcome.Kind {
	case event.OutcomePing:
		logger.Info("Received ping event from GitHub")
		metrics.WebhookDeliveries.WithLabelValues(label, "ping").Inc()
		writeJSON(w, http.StatusOK, StatusResponse{Status: StatusSuccess, Message: outcome.Message})

	case event.OutcomeIgnored:
		logger.V(1).Info("Ignoring webhook event", "reason", outcome.Message)
		metrics.WebhookDeliveries.WithLabelValues(label, "ignored").Inc()
		writeJSON(w, http.StatusOK, StatusResponse{Status: StatusIgnored, Message: outcome.Message})

	case event.OutcomeRecord:
		rec := outcome.Record
		id, err := s.store.Append(r.Context(), rec)
		if err != nil {
			message := "Failed to store event"
			if errors.Is(err, store.ErrNotConfigured) {
				message = "Database not configured"
			}
			logger.Error(err, "Failed to store event", "action", rec.Action)
			metrics.WebhookDeliveries.WithLabelValues(label, "error").Inc()
			writeJSON(w, http.StatusInternalServerError, StatusResponse{Status: StatusError, Message: message})
			return
		}

		logger.Info("Stored event", "id", id, "action", rec.Action, "author", rec.Author)
		metrics.WebhookDeliveries.WithLabelValues(label, "stored").Inc()
		writeJSON(w, http.StatusOK, StatusResponse{Status: StatusSuccess, Message: "Webhook received and processed"})
	}
}

// handleEvents returns the most recent events as display messages, newest first
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	recs, err := s.store.Recent(r.Context(), s.eventsLimit)
	if err != nil {
		message := "Failed to retrieve events"
		if errors.Is(err, store.ErrNotConfigured) {
			message = "Database not configured"
		}
		logger.Error(err, "Failed to fetch events")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Status: StatusError, Error: message, Details: err.Error()})
		return
	}

	messages := make([]EventMessage, 0, len(recs))
	for _, rec := range recs {
		messages = append(messages, EventMessage{Message: display.Message(rec)})
	}
	writeJSON(w, http.StatusOK, messages)
}

// extractPayload returns the JSON document of a delivery. GitHub sends it
// either as the raw body or in the "payload" field of a form-encoded body.
func extractPayload(contentType string, body []byte) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return body, nil
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	return []byte(form.Get("payload")), nil
}

// eventLabel bounds the event label of delivery metrics to the known event types.
func eventLabel(eventType string) string {
	switch eventType {
	case event.EventPing, event.EventPush, event.EventPullRequest:
		return eventType
	default:
		return "other"
	}
}

func processingFailure(eventType string) string {
	return fmt.Sprintf("Failed to process %s event", strings.ToUpper(eventType))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
