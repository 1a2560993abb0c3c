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
	"math"
	"math/rand"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// RetryConfig defines the backoff used while connecting to a backend
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig returns the backoff used by Open unless WithRetry is given.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
	}
}

// connectWithRetry calls ping until it succeeds, the retries are exhausted,
// or ctx is done. The final error wraps ErrUnavailable.
func connectWithRetry(ctx context.Context, cfg *RetryConfig, ping func(context.Context) error) error {
	logger := log.FromContext(ctx)
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		default:
		}

		lastErr = ping(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxRetries {
			break
		}

		backoff := cfg.backoff(attempt)
		logger.Info("Event store not reachable, retrying", "attempt", attempt+1, "backoff", backoff, "error", lastErr.Error())

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: connect failed after %d retries: %w", ErrUnavailable, cfg.MaxRetries, lastErr)
}

// backoff returns the wait before the next attempt: exponential growth with
// +/-20% jitter, capped at MaxBackoff.
func (c *RetryConfig) backoff(attempt int) time.Duration {
	factor := c.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	base := float64(c.InitialBackoff) * math.Pow(factor, float64(attempt))

	jitter := (rand.Float64() * 0.4) - 0.2 // -0.2 to +0.2
	backoff := time.Duration(base * (1 + jitter))

	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}
