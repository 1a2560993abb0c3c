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
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mikelane/hookfeed/internal/metrics"
	"github.com/mikelane/hookfeed/internal/store"
)

// Server handles GitHub webhook requests and serves the events feed
type Server struct {
	addr            string
	store           store.Store
	webhookSecret   string
	eventsLimit     int
	shutdownTimeout time.Duration
	logger          logr.Logger
	server          *http.Server
	now             func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithEventsLimit sets how many records the events feed returns
func WithEventsLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.eventsLimit = n
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger sets the base logger for request handling
func WithLogger(logger logr.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// withClock replaces the receipt clock in tests
func withClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new webhook server. An empty webhookSecret accepts only
// unsigned deliveries.
func NewServer(addr string, st store.Store, webhookSecret string, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		store:           st,
		webhookSecret:   webhookSecret,
		eventsLimit:     store.DefaultRecentLimit,
		shutdownTimeout: 10 * time.Second,
		logger:          log.Log.WithName("webhook"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if webhookSecret == "" {
		s.logger.Info("GITHUB_WEBHOOK_SECRET not configured; only unsigned deliveries will be accepted")
	}
	return s
}

// Handler returns the HTTP routes served by the webhook server
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/receiver", s.handleWebhook)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// Start starts the webhook server and blocks until ctx is canceled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting webhook server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Shutting down webhook server")
	return s.server.Shutdown(ctx)
}

// requestLogger puts a request-scoped logger into the request context
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.WithValues("requestID", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(log.IntoContext(r.Context(), logger)))

		logger.V(1).Info("Handled request", "status", ww.Status(), "duration", time.Since(start))
	})
}
