// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so the gate and backoff can be driven by tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Gate enforces a minimum gap between consecutive outbound requests. One
// gate is shared by everything that talks to the same service.
type Gate struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	clock   Clock
}

// NewGate returns a gate allowing one request per gap. A zero gap disables
// waiting. A nil clock means the system clock.
func NewGate(gap time.Duration, clock Clock) *Gate {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if gap > 0 {
		limit = rate.Every(gap)
	}
	return &Gate{limiter: rate.NewLimiter(limit, 1), clock: clock}
}

// Wait blocks until the gap since the previous request has elapsed.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("rate gate: reservation refused")
	}
	if err := g.clock.Sleep(ctx, r.DelayFrom(now)); err != nil {
		r.CancelAt(g.clock.Now())
		return err
	}
	return nil
}
