// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the polite HTTP plumbing shared by the metadata
// client and cache backends: a request gate and a retrying executor.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Defaults for Retrier fields left at zero.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2.0
	DefaultRetryAfter  = 60 * time.Second
)

const maxDrain = 64 << 10

// ErrRetriesExhausted is returned when every attempt failed with a
// retryable condition.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is a terminal (non-retryable) HTTP status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Retrier executes requests through a Gate with the retry policy:
// 429 waits Retry-After (DefaultRetryAfter when absent), 5xx and transport
// errors back off BackoffBase^attempt seconds, other 4xx fail at once.
type Retrier struct {
	Client            *http.Client
	Gate              *Gate
	Clock             Clock
	MaxAttempts       int
	BackoffBase       float64
	DefaultRetryAfter time.Duration
	Logger            *slog.Logger
}

func (r *Retrier) defaults() (int, float64, time.Duration, Clock, *slog.Logger) {
	attempts, base, after := r.MaxAttempts, r.BackoffBase, r.DefaultRetryAfter
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if after <= 0 {
		after = DefaultRetryAfter
	}
	clock := r.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return attempts, base, after, clock, logger
}

// Do sends req, retrying as described on Retrier. The caller owns the
// returned response body. Context cancellation aborts any wait.
func (r *Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts, base, retryAfter, clock, logger := r.defaults()
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	target := req.URL.String()

	for attempt := 1; attempt <= attempts; attempt++ {
		if r.Gate != nil {
			if err := r.Gate.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var wait time.Duration
		resp, err := client.Do(req.Clone(ctx))
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			wait = backoff(base, attempt)
			logger.Warn("request failed", "url", target, "attempt", attempt, "of", attempts, "error", err, "retry_in", wait)

		case resp.StatusCode == http.StatusTooManyRequests:
			wait = parseRetryAfter(resp.Header.Get("Retry-After"), retryAfter)
			drain(resp)
			logger.Warn("rate limited", "url", target, "attempt", attempt, "of", attempts, "retry_in", wait)

		case resp.StatusCode >= 500:
			wait = backoff(base, attempt)
			drain(resp)
			logger.Warn("server error", "url", target, "status", resp.StatusCode, "attempt", attempt, "of", attempts, "retry_in", wait)

		case resp.StatusCode >= 400:
			drain(resp)
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}

		default:
			return resp, nil
		}

		if attempt == attempts {
			break
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %s", ErrRetriesExhausted, attempts, target)
}

func backoff(base float64, attempt int) time.Duration {
	return time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
}

// parseRetryAfter reads a delay-seconds Retry-After value.
func parseRetryAfter(v string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()
}
